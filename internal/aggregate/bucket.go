package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/putzplan/putz/internal/domain"
	"github.com/samber/lo"
)

// CountMode selects what "task count" means for a bucket.
type CountMode int

const (
	// CountExecutions counts completion events.
	CountExecutions CountMode = iota
	// CountDistinctTasks counts tasks completed at least once.
	CountDistinctTasks
)

// Bucket is one time slice of execution history: a calendar month, a
// historical period or a custom range.
type Bucket struct {
	Key           string
	Label         string
	Start         time.Time
	End           time.Time
	Executions    int
	DistinctTasks int
	Points        int
	// Archived is true when the numbers come from a frozen period summary.
	Archived bool
}

// TaskCount returns the bucket's task count in the requested semantic.
func (b Bucket) TaskCount(mode CountMode) int {
	if mode == CountDistinctTasks {
		return b.DistinctTasks
	}
	return b.Executions
}

// MonthKey formats a (year, month) bucket key, e.g. "2026-03".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

type monthKey struct {
	year  int
	month time.Month
}

// Monthly groups execs into calendar-month buckets in loc, oldest first.
// Months without executions are omitted.
func Monthly(execs []domain.Execution, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.UTC
	}
	groups := lo.GroupBy(execs, func(e domain.Execution) monthKey {
		t := e.ExecutedAt.In(loc)
		return monthKey{year: t.Year(), month: t.Month()}
	})
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		start := time.Date(k.year, k.month, 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		b := fill(groups[k])
		b.Key = MonthKey(k.year, k.month)
		b.Label = start.Format("January 2006")
		b.Start, b.End = start, end
		out = append(out, b)
	}
	return out
}

// ForRange builds one synthetic bucket over [start, end] inclusive.
func ForRange(key, label string, start, end time.Time, execs []domain.Execution) Bucket {
	b := fill(Filter(execs, &Bounds{Start: start, End: end}))
	b.Key, b.Label = key, label
	b.Start, b.End = start, end
	return b
}

// ForPeriods builds one bucket per period. Archived periods use their
// frozen summary; the others are counted live with period-id precedence.
func ForPeriods(periods []domain.Period, execs []domain.Execution) []Bucket {
	out := make([]Bucket, 0, len(periods))
	for _, p := range periods {
		var b Bucket
		if p.Status() == domain.StatusArchived {
			b = Bucket{
				Executions:    p.Summary.TotalExecutions,
				Points:        p.Summary.TotalPoints,
				DistinctTasks: p.Summary.DistinctTasks,
				Archived:      true,
			}
		} else {
			b = fill(Filter(execs, BoundsOf(p)))
		}
		b.Key = p.ID
		b.Label = p.Label()
		b.Start, b.End = p.StartDate, p.EndDate
		out = append(out, b)
	}
	return out
}

func fill(execs []domain.Execution) Bucket {
	return Bucket{
		Executions:    len(execs),
		Points:        lo.SumBy(execs, func(e domain.Execution) int { return e.PointsAwarded }),
		DistinctTasks: DistinctTasks(execs),
	}
}

// DistinctTasks counts tasks with at least one execution in execs.
func DistinctTasks(execs []domain.Execution) int {
	return len(lo.Uniq(lo.Map(execs, func(e domain.Execution, _ int) string { return e.TaskID })))
}
