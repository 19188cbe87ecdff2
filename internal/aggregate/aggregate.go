// Package aggregate turns raw task executions into per-user and per-task
// statistics for a period, a calendar month or any custom range.
//
// The central invariant is that the per-user totals always sum to the overall
// total: every execution that passes the filter is attributed to exactly one
// PerUser row, including executors missing from the supplied user list.
package aggregate

import (
	"sort"
	"time"

	"github.com/putzplan/putz/internal/domain"
	"github.com/samber/lo"
)

// Bounds selects the executions that belong to a period or range.
type Bounds struct {
	// PeriodID, when set, takes precedence over the window for executions
	// that carry a PeriodID of their own.
	PeriodID string
	Start    time.Time
	End      time.Time
}

// BoundsOf returns the bounds of p.
func BoundsOf(p domain.Period) *Bounds {
	return &Bounds{PeriodID: p.ID, Start: p.StartDate, End: p.EndDate}
}

// Belongs reports whether e falls within b. A nil b matches everything.
//
// An execution bound to a period belongs to that period only. Executions
// recorded before periods were bound (no PeriodID) and all executions checked
// against a plain range are matched by timestamp, inclusive on both ends.
func (b *Bounds) Belongs(e domain.Execution) bool {
	if b == nil {
		return true
	}
	if b.PeriodID != "" && e.PeriodID != "" {
		return e.PeriodID == b.PeriodID
	}
	return !e.ExecutedAt.Before(b.Start) && !e.ExecutedAt.After(b.End)
}

// Filter returns the executions of execs that belong to b, preserving order.
func Filter(execs []domain.Execution, b *Bounds) []domain.Execution {
	return lo.Filter(execs, func(e domain.Execution, _ int) bool {
		return b.Belongs(e)
	})
}

// TaskShare is one task's slice of a user's or bucket's completions.
type TaskShare struct {
	TaskID      string
	Title       string
	Count       int
	Percentage  int
	TotalPoints int
}

// UserStats aggregates one executor's completions.
type UserStats struct {
	UserID string
	Name   string
	// Known is false for executors not present in the user list.
	Known bool

	TotalPoints          int
	TotalTasks           int
	AveragePointsPerTask int
	FavoriteTask         *TaskShare
	TaskDistribution     []TaskShare

	HotTaskCount  int
	HotTaskPoints int
	RegularPoints int
}

// TaskStats aggregates one task across all executors.
type TaskStats struct {
	TaskID      string
	Title       string
	IsAlarmed   bool
	Count       int
	TotalPoints int
	Percentage  int
}

// Result is the aggregate of one execution set.
type Result struct {
	TotalPoints  int
	TotalTasks   int
	HotTaskCount int
	PerUser      []UserStats
	PerTask      []TaskStats
}

// IsHot reports whether e counts as a hot-task completion: the task is
// flagged as alarmed, or the awarded points exceed the task's base value
// because a bonus was applied. Both conditions are kept deliberately.
func IsHot(e domain.Execution, tasks map[string]domain.Task) bool {
	t, ok := tasks[e.TaskID]
	if !ok {
		return false
	}
	return t.IsAlarmed || e.PointsAwarded > t.PointsPerExecution
}

// Aggregate computes totals, per-user and per-task stats for the executions
// that belong to b. PerUser lists users in the given order followed by
// unknown executors in order of first appearance.
func Aggregate(execs []domain.Execution, tasks map[string]domain.Task, users []domain.User, b *Bounds) Result {
	filtered := Filter(execs, b)

	res := Result{
		TotalPoints: lo.SumBy(filtered, func(e domain.Execution) int { return e.PointsAwarded }),
		TotalTasks:  len(filtered),
	}

	byUser := lo.GroupBy(filtered, func(e domain.Execution) string { return e.ExecutedBy })
	names := map[string]string{}
	var order []string
	for _, u := range users {
		if _, dup := names[u.ID]; dup {
			continue
		}
		names[u.ID] = u.Name
		order = append(order, u.ID)
	}
	for _, e := range filtered {
		if _, ok := names[e.ExecutedBy]; !ok {
			names[e.ExecutedBy] = ""
			order = append(order, e.ExecutedBy)
		}
	}

	known := lo.SliceToMap(users, func(u domain.User) (string, bool) { return u.ID, true })
	for _, id := range order {
		us := UserStatsFor(byUser[id], tasks)
		us.UserID = id
		us.Known = known[id]
		us.Name = names[id]
		if us.Name == "" {
			us.Name = id
		}
		res.PerUser = append(res.PerUser, us)
		res.HotTaskCount += us.HotTaskCount
	}

	res.PerTask = taskStats(filtered, tasks, res.TotalTasks)
	return res
}

// UserStatsFor aggregates one executor's executions. The caller fills in
// the identity fields.
func UserStatsFor(execs []domain.Execution, tasks map[string]domain.Task) UserStats {
	var us UserStats
	for _, e := range execs {
		us.TotalPoints += e.PointsAwarded
		us.TotalTasks++
		if IsHot(e, tasks) {
			us.HotTaskCount++
			us.HotTaskPoints += e.PointsAwarded
		}
	}
	us.RegularPoints = us.TotalPoints - us.HotTaskPoints
	us.AveragePointsPerTask = roundedRatio(us.TotalPoints, us.TotalTasks)
	us.TaskDistribution = distribution(execs, tasks, us.TotalTasks)
	if len(us.TaskDistribution) > 0 {
		fav := us.TaskDistribution[0]
		us.FavoriteTask = &fav
	}
	return us
}

// distribution counts executions per task in first-encountered order and
// sorts by count descending. The sort is stable, so ties keep the task that
// was completed first.
func distribution(execs []domain.Execution, tasks map[string]domain.Task, total int) []TaskShare {
	index := map[string]int{}
	var shares []TaskShare
	for _, e := range execs {
		i, ok := index[e.TaskID]
		if !ok {
			i = len(shares)
			index[e.TaskID] = i
			shares = append(shares, TaskShare{TaskID: e.TaskID, Title: taskTitle(e.TaskID, tasks)})
		}
		shares[i].Count++
		shares[i].TotalPoints += e.PointsAwarded
	}
	for i := range shares {
		shares[i].Percentage = Percent(shares[i].Count, total)
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Count > shares[j].Count })
	return shares
}

func taskStats(execs []domain.Execution, tasks map[string]domain.Task, total int) []TaskStats {
	index := map[string]int{}
	var out []TaskStats
	for _, e := range execs {
		i, ok := index[e.TaskID]
		if !ok {
			i = len(out)
			index[e.TaskID] = i
			out = append(out, TaskStats{
				TaskID:    e.TaskID,
				Title:     taskTitle(e.TaskID, tasks),
				IsAlarmed: tasks[e.TaskID].IsAlarmed,
			})
		}
		out[i].Count++
		out[i].TotalPoints += e.PointsAwarded
	}
	for i := range out {
		out[i].Percentage = Percent(out[i].Count, total)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func taskTitle(id string, tasks map[string]domain.Task) string {
	if t, ok := tasks[id]; ok && t.Title != "" {
		return t.Title
	}
	return id
}

// ForPeriod aggregates p. Archived periods are read from their frozen
// summary; active and legacy periods are derived live from execs.
func ForPeriod(p domain.Period, execs []domain.Execution, tasks map[string]domain.Task, users []domain.User) Result {
	switch p.Status() {
	case domain.StatusArchived:
		return FromSummary(*p.Summary, users)
	default:
		return Aggregate(execs, tasks, users, BoundsOf(p))
	}
}

// FromSummary rebuilds a Result from an archived snapshot. Task-level
// detail is not part of a snapshot, so PerTask and distributions are empty.
func FromSummary(s domain.Summary, users []domain.User) Result {
	names := lo.SliceToMap(users, func(u domain.User) (string, string) { return u.ID, u.Name })
	res := Result{TotalPoints: s.TotalPoints, TotalTasks: s.TotalExecutions}
	for _, m := range s.Members {
		name, ok := names[m.UserID]
		if !ok {
			name = m.UserID
		}
		res.PerUser = append(res.PerUser, UserStats{
			UserID:               m.UserID,
			Name:                 name,
			Known:                ok,
			TotalPoints:          m.Points,
			TotalTasks:           m.Executions,
			AveragePointsPerTask: roundedRatio(m.Points, m.Executions),
			RegularPoints:        m.Points,
		})
	}
	return res
}
