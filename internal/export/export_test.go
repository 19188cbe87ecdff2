package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/analytics"
	"github.com/putzplan/putz/internal/domain"
	"github.com/xuri/excelize/v2"
)

func sampleReport() Report {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Report{
		Period: domain.Period{ID: "mar", Name: "März", StartDate: start, EndDate: start.AddDate(0, 1, -1), IsActive: true},
		Overall: analytics.Overall{
			TotalPoints: 50,
			TotalTasks:  3,
			Leaderboard: []analytics.LeaderboardEntry{
				{Rank: 1, Name: "Alice", TotalPoints: 30, TotalTasks: 2},
				{Rank: 2, Name: "Bob", TotalPoints: 20, TotalTasks: 1, HotTaskCount: 1},
			},
		},
		PerTask: []aggregate.TaskStats{
			{Title: "Kitchen", Count: 2, TotalPoints: 30, Percentage: 67},
			{Title: "Bath", Count: 1, TotalPoints: 20, Percentage: 33, IsAlarmed: true},
		},
		Periods: []domain.Period{
			{Name: "Februar", StartDate: start.AddDate(0, -1, 0), EndDate: start.AddDate(0, 0, -1), TargetPoints: 100,
				Summary: &domain.Summary{TotalPoints: 80, TotalExecutions: 6}},
			{Name: "Januar", StartDate: start.AddDate(0, -2, 0), EndDate: start.AddDate(0, -1, -1)},
		},
		Months: []aggregate.Bucket{{Key: "2026-03", Label: "March 2026", Executions: 3, DistinctTasks: 2, Points: 50}},
	}
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("GetCellValue(%s!%s): %v", sheet, axis, err)
	}
	return v
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := Save(path, sampleReport()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetLeaderboard, SheetTasks, SheetPeriods, SheetMonths}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	checks := []struct{ sheet, axis, want string }{
		{SheetLeaderboard, "B1", "März"},
		{SheetLeaderboard, "C1", "active"},
		{SheetLeaderboard, "B2", "50"},
		{SheetLeaderboard, "B5", "Alice"},
		{SheetLeaderboard, "C6", "20"},
		{SheetLeaderboard, "E6", "1"},
		{SheetTasks, "A2", "Kitchen"},
		{SheetTasks, "E3", "TRUE"},
		{SheetPeriods, "B2", "2026-02-01"},
		{SheetPeriods, "D2", "archived"},
		{SheetPeriods, "F2", "80"},
		{SheetPeriods, "D3", "legacy"},
		{SheetPeriods, "F3", ""},
		{SheetMonths, "A2", "March 2026"},
		{SheetMonths, "C2", "2"},
	}
	for _, c := range checks {
		if got := cell(t, f, c.sheet, c.axis); got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.axis, got, c.want)
		}
	}
}

func TestWrite_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Report{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	if got := cell(t, f, SheetTasks, "A1"); got != "Task" {
		t.Errorf("header = %q", got)
	}
	if got := cell(t, f, SheetTasks, "A2"); got != "" {
		t.Errorf("unexpected row %q", got)
	}
}
