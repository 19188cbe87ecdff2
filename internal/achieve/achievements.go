package achieve

// Metric names the counter an achievement is measured against.
type Metric string

const (
	MetricTasks      Metric = "tasks"
	MetricHotTasks   Metric = "hot_tasks"
	MetricPoints     Metric = "points"
	MetricStreak     Metric = "streak"
	MetricTeamTasks  Metric = "team_tasks"
	MetricTeamPoints Metric = "team_points"
)

// Definition is one entry of the fixed achievement catalogue.
type Definition struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Metric      Metric
	Target      int
}

// Achievement is a definition evaluated against actual counters.
type Achievement struct {
	Definition
	Unlocked bool
	// Progress is capped at Target for display.
	Progress int
}

// UserCatalogue lists the per-user achievements.
var UserCatalogue = []Definition{
	{ID: "first_task", Title: "Erste Schritte", Description: "Complete your first task", Icon: "🧽", Metric: MetricTasks, Target: 1},
	{ID: "tasks_10", Title: "Fleißig", Description: "Complete 10 tasks", Icon: "🧹", Metric: MetricTasks, Target: 10},
	{ID: "tasks_50", Title: "Putzteufel", Description: "Complete 50 tasks", Icon: "🪣", Metric: MetricTasks, Target: 50},
	{ID: "tasks_100", Title: "Haushaltsheld", Description: "Complete 100 tasks", Icon: "🏆", Metric: MetricTasks, Target: 100},
	{ID: "hot_5", Title: "Feuerwehr", Description: "Complete 5 hot tasks", Icon: "🔥", Metric: MetricHotTasks, Target: 5},
	{ID: "hot_25", Title: "Brandlöscher", Description: "Complete 25 hot tasks", Icon: "🚒", Metric: MetricHotTasks, Target: 25},
	{ID: "points_100", Title: "Punktesammler", Description: "Earn 100 points", Icon: "⭐", Metric: MetricPoints, Target: 100},
	{ID: "points_500", Title: "Punktejäger", Description: "Earn 500 points", Icon: "🌟", Metric: MetricPoints, Target: 500},
	{ID: "points_1000", Title: "Punktekönig", Description: "Earn 1000 points", Icon: "👑", Metric: MetricPoints, Target: 1000},
	{ID: "streak_3", Title: "Dranbleiber", Description: "Keep a 3-day streak", Icon: "📅", Metric: MetricStreak, Target: 3},
	{ID: "streak_7", Title: "Wochenwunder", Description: "Keep a 7-day streak", Icon: "🗓", Metric: MetricStreak, Target: 7},
	{ID: "streak_30", Title: "Unaufhaltsam", Description: "Keep a 30-day streak", Icon: "💎", Metric: MetricStreak, Target: 30},
}

// TeamCatalogue lists the household-wide achievements.
var TeamCatalogue = []Definition{
	{ID: "team_tasks_100", Title: "Eingespieltes Team", Description: "Complete 100 tasks together", Icon: "🤝", Metric: MetricTeamTasks, Target: 100},
	{ID: "team_tasks_500", Title: "Putzkolonne", Description: "Complete 500 tasks together", Icon: "🏠", Metric: MetricTeamTasks, Target: 500},
	{ID: "team_points_1000", Title: "Tausender", Description: "Earn 1000 points together", Icon: "💰", Metric: MetricTeamPoints, Target: 1000},
	{ID: "team_points_5000", Title: "Glanzleistung", Description: "Earn 5000 points together", Icon: "✨", Metric: MetricTeamPoints, Target: 5000},
}

// UserCounters are the inputs of the user catalogue.
type UserCounters struct {
	Tasks    int
	HotTasks int
	Points   int
	// Streak is the longest streak; a badge stays unlocked once earned.
	Streak int
}

// TeamCounters are the inputs of the team catalogue.
type TeamCounters struct {
	Tasks  int
	Points int
}

// Evaluate checks every definition against values.
func Evaluate(defs []Definition, values map[Metric]int) []Achievement {
	out := make([]Achievement, 0, len(defs))
	for _, d := range defs {
		v := values[d.Metric]
		progress := v
		if progress > d.Target {
			progress = d.Target
		}
		if progress < 0 {
			progress = 0
		}
		out = append(out, Achievement{Definition: d, Unlocked: v >= d.Target, Progress: progress})
	}
	return out
}

// ForUser evaluates the user catalogue.
func ForUser(c UserCounters) []Achievement {
	return Evaluate(UserCatalogue, map[Metric]int{
		MetricTasks:    c.Tasks,
		MetricHotTasks: c.HotTasks,
		MetricPoints:   c.Points,
		MetricStreak:   c.Streak,
	})
}

// ForTeam evaluates the team catalogue.
func ForTeam(c TeamCounters) []Achievement {
	return Evaluate(TeamCatalogue, map[Metric]int{
		MetricTeamTasks:  c.Tasks,
		MetricTeamPoints: c.Points,
	})
}

// Unlocked filters achievements down to the unlocked ones.
func Unlocked(all []Achievement) []Achievement {
	var out []Achievement
	for _, a := range all {
		if a.Unlocked {
			out = append(out, a)
		}
	}
	return out
}
