package achieve

import (
	"testing"
	"time"

	"github.com/putzplan/putz/internal/domain"
)

var now = time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name        string
		days        []string
		wantCurrent int
		wantLongest int
	}{
		{"empty", nil, 0, 0},
		{"today only", []string{"2026-03-15"}, 1, 1},
		{"three through today", []string{"2026-03-15", "2026-03-14", "2026-03-13"}, 3, 3},
		{"nothing today breaks current", []string{"2026-03-14", "2026-03-13"}, 0, 2},
		{"gap", []string{"2026-03-15", "2026-03-13", "2026-03-12", "2026-03-11"}, 1, 3},
		{"future entry skipped", []string{"2026-03-20", "2026-03-15", "2026-03-14"}, 2, 2},
		{"old long run", []string{"2026-03-15", "2026-02-03", "2026-02-02", "2026-02-01", "2026-01-31"}, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.days, now)
			if got.Current != tt.wantCurrent || got.Longest != tt.wantLongest {
				t.Errorf("ComputeStreak = %+v, want current %d longest %d", got, tt.wantCurrent, tt.wantLongest)
			}
		})
	}
}

func TestActiveDays(t *testing.T) {
	execs := []domain.Execution{
		{ExecutedAt: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)},
		{ExecutedAt: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)},
		{ExecutedAt: time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)},
	}
	got := ActiveDays(execs)
	if len(got) != 2 || got[0] != "2026-03-15" || got[1] != "2026-03-14" {
		t.Errorf("ActiveDays = %v", got)
	}
	if s := StreakFor(execs, now); s.Current != 2 {
		t.Errorf("StreakFor = %+v", s)
	}
}
