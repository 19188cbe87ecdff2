// Package analytics composes aggregation, streaks and achievements into the
// two views the presentation layer consumes: the household-wide overview and
// the per-user breakdown.
//
// Both entry points are pure functions of their inputs. Callers that render
// the same view repeatedly can memoize through Cache.
package analytics

import (
	"sort"
	"time"

	"github.com/putzplan/putz/internal/achieve"
	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/domain"
	"github.com/samber/lo"
)

// TopTaskLimit is how many tasks Overall.TopTasks holds.
const TopTaskLimit = 5

// LeaderboardEntry is one row of the household leaderboard.
type LeaderboardEntry struct {
	Rank         int
	UserID       string
	Name         string
	TotalPoints  int
	TotalTasks   int
	HotTaskCount int
}

// Overall is the household-wide view.
type Overall struct {
	TotalPoints      int
	TotalTasks       int
	TotalUsers       int
	Leaderboard      []LeaderboardEntry
	TopTasks         []aggregate.TaskStats
	TotalHotTasks    int
	TeamAchievements []achieve.Achievement
}

// CalculateOverallAnalytics builds the household overview from all of execs.
// The leaderboard is sorted by points descending and its points always sum
// to TotalPoints.
func CalculateOverallAnalytics(execs []domain.Execution, tasks map[string]domain.Task, users []domain.User) Overall {
	return OverallFromResult(aggregate.Aggregate(execs, tasks, users, nil), len(users))
}

// OverallForPeriod builds the overview for p, reading archived periods from
// their frozen summary.
func OverallForPeriod(p domain.Period, execs []domain.Execution, tasks map[string]domain.Task, users []domain.User) Overall {
	return OverallFromResult(aggregate.ForPeriod(p, execs, tasks, users), len(users))
}

// OverallFromResult shapes an aggregate into the overview.
func OverallFromResult(res aggregate.Result, totalUsers int) Overall {
	o := Overall{
		TotalPoints:   res.TotalPoints,
		TotalTasks:    res.TotalTasks,
		TotalUsers:    totalUsers,
		TotalHotTasks: res.HotTaskCount,
	}

	o.Leaderboard = lo.Map(res.PerUser, func(u aggregate.UserStats, _ int) LeaderboardEntry {
		return LeaderboardEntry{
			UserID:       u.UserID,
			Name:         u.Name,
			TotalPoints:  u.TotalPoints,
			TotalTasks:   u.TotalTasks,
			HotTaskCount: u.HotTaskCount,
		}
	})
	sort.SliceStable(o.Leaderboard, func(i, j int) bool {
		a, b := o.Leaderboard[i], o.Leaderboard[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.Name < b.Name
	})
	for i := range o.Leaderboard {
		o.Leaderboard[i].Rank = i + 1
	}

	top := res.PerTask
	if len(top) > TopTaskLimit {
		top = top[:TopTaskLimit]
	}
	o.TopTasks = append([]aggregate.TaskStats(nil), top...)

	o.TeamAchievements = achieve.ForTeam(achieve.TeamCounters{Tasks: res.TotalTasks, Points: res.TotalPoints})
	return o
}

// UserAnalytics is the per-user breakdown. The embedded UserStats, streaks,
// achievements, distributions and monthly figures cover the user's whole
// history; Period is the user's share of the viewed period.
type UserAnalytics struct {
	aggregate.UserStats

	Period aggregate.UserStats

	CurrentStreak int
	LongestStreak int
	Achievements  []achieve.Achievement

	HourDistribution    [24]int
	WeekdayDistribution [7]int
	Monthly             []aggregate.Bucket

	TargetMonthlyPoints int
	ThisMonthPoints     int
	// TargetProgress is ThisMonthPoints as a percentage of the monthly
	// target, one decimal place. Zero when no target is set.
	TargetProgress float64
}

// CalculateUserAnalytics builds the breakdown for userID from the
// executions in execs that were performed by that user. user may be nil for
// executors that are no longer in the reference data. Hours, weekdays and
// months are bucketed in loc; a nil loc means UTC.
func CalculateUserAnalytics(userID string, user *domain.User, execs []domain.Execution, tasks map[string]domain.Task, now time.Time, loc *time.Location) UserAnalytics {
	if loc == nil {
		loc = time.UTC
	}
	own := lo.Filter(execs, func(e domain.Execution, _ int) bool { return e.ExecutedBy == userID })

	ua := UserAnalytics{UserStats: aggregate.UserStatsFor(own, tasks)}
	ua.UserID = userID
	ua.Name = userID
	if user != nil {
		ua.Known = true
		if user.Name != "" {
			ua.Name = user.Name
		}
		ua.TargetMonthlyPoints = user.TargetMonthlyPoints
	}
	ua.Period = ua.UserStats

	streak := achieve.StreakFor(own, now)
	ua.CurrentStreak = streak.Current
	ua.LongestStreak = streak.Longest
	ua.Achievements = achieve.ForUser(achieve.UserCounters{
		Tasks:    ua.TotalTasks,
		HotTasks: ua.HotTaskCount,
		Points:   ua.TotalPoints,
		Streak:   streak.Longest,
	})

	ua.HourDistribution = aggregate.HourDistribution(own, loc)
	ua.WeekdayDistribution = aggregate.WeekdayDistribution(own, loc)
	ua.Monthly = aggregate.Monthly(own, loc)

	local := now.In(loc)
	key := aggregate.MonthKey(local.Year(), local.Month())
	for _, b := range ua.Monthly {
		if b.Key == key {
			ua.ThisMonthPoints = b.Points
		}
	}
	ua.TargetProgress = aggregate.PercentOneDecimal(ua.ThisMonthPoints, ua.TargetMonthlyPoints)
	return ua
}

// UserForPeriod is CalculateUserAnalytics over the user's full history with
// Period scoped to p. An archived period reads the user's row from its frozen
// summary; active and legacy periods are computed from the executions that
// belong to p.
func UserForPeriod(p domain.Period, userID string, user *domain.User, history []domain.Execution, tasks map[string]domain.Task, now time.Time, loc *time.Location) UserAnalytics {
	ua := CalculateUserAnalytics(userID, user, history, tasks, now, loc)

	var ps aggregate.UserStats
	switch p.Status() {
	case domain.StatusArchived:
		rows := aggregate.FromSummary(*p.Summary, nil).PerUser
		if row, ok := lo.Find(rows, func(r aggregate.UserStats) bool { return r.UserID == userID }); ok {
			ps = row
		}
	default:
		in := aggregate.Filter(history, aggregate.BoundsOf(p))
		own := lo.Filter(in, func(e domain.Execution, _ int) bool { return e.ExecutedBy == userID })
		ps = aggregate.UserStatsFor(own, tasks)
	}
	ps.UserID, ps.Name, ps.Known = ua.UserID, ua.Name, ua.Known
	ua.Period = ps
	return ua
}
