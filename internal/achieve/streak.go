// Package achieve derives gamification state (streaks and badges) from
// execution history. It keeps no state of its own.
package achieve

import (
	"sort"
	"time"

	"github.com/putzplan/putz/internal/domain"
)

const dayLayout = "2006-01-02"

// StreakInfo holds current and longest streak values.
type StreakInfo struct {
	Current int
	Longest int
}

// ActiveDays returns the distinct UTC calendar days of execs, sorted
// descending (most recent first).
func ActiveDays(execs []domain.Execution) []string {
	seen := map[string]bool{}
	var days []string
	for _, e := range execs {
		d := e.ExecutedAt.UTC().Format(dayLayout)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days
}

// ComputeStreak calculates the current and longest streaks from distinct
// activity days ("YYYY-MM-DD", sorted descending).
//
// The current streak walks backward from today and stops at the first day
// without an execution, so it is zero when nothing was done today.
func ComputeStreak(days []string, now time.Time) StreakInfo {
	if len(days) == 0 {
		return StreakInfo{}
	}

	var current int
	cursor := now.UTC()
	for _, d := range days {
		want := cursor.Format(dayLayout)
		if d > want {
			// Future-dated entries do not count toward the current run.
			continue
		}
		if d != want {
			break
		}
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	longest, run := 1, 1
	for i := len(days) - 2; i >= 0; i-- {
		prev, _ := time.Parse(dayLayout, days[i+1])
		curr, _ := time.Parse(dayLayout, days[i])
		if prev.AddDate(0, 0, 1).Equal(curr) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	if current > longest {
		longest = current
	}
	return StreakInfo{Current: current, Longest: longest}
}

// StreakFor computes the streak of a set of executions.
func StreakFor(execs []domain.Execution, now time.Time) StreakInfo {
	return ComputeStreak(ActiveDays(execs), now)
}
