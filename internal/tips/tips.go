// Package tips provides the rotating dashboard hints for putz.
package tips

import "time"

// all is the tip pool. Each entry names a command and what it is good for.
var all = []string{
	"`putz done <task>` to record a chore for yourself.",
	"`putz done <task> --by bob` to record a chore someone else did.",
	"`putz done <task> --bonus 5` to reward an unpleasant job; bonus completions count as hot.",
	"`putz done <task> --at 2026-03-01T18:00` to backfill a chore you forgot to log.",
	"`putz stats` for the leaderboard, top tasks and team achievements.",
	"`putz stats -u <name>` for one person's streak, favorite task and weekday pattern.",
	"`putz stats months --distinct` to count tasks instead of completions per month.",
	"`putz stats hide 2026-01` to hide a month from the history views.",
	"`putz stats restore` to bring back everything you hid.",
	"`putz period set --start <date> --end <date>` archives the current period before starting a new one.",
	"`putz period set --reset` clears live points after archiving, so nothing is lost.",
	"`putz period list -a` to see every period including the active one.",
	"`putz period show` to browse past periods with a picker.",
	"`putz export report.xlsx` to take the leaderboard into a spreadsheet.",
	"`putz use <household>` to switch between households.",
	"`putz config set user.id <id>` so `putz done` knows who you are.",
	"`putz config set notify.endpoint <url>` to announce hot tasks in the group chat.",
}

// All returns all tips in the pool.
func All() []string {
	return all
}

// Daily returns a deterministic tip for the given day.
// The same tip is returned all day; it changes each day.
func Daily(t time.Time) string {
	return all[t.YearDay()%len(all)]
}
