package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/putzplan/putz/internal/achieve"
	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/hidden"
	"github.com/putzplan/putz/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	statsUser     string
	statsPeriod   string
	statsDistinct bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Leaderboard, top tasks and achievements",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsMonthsCmd = &cobra.Command{
	Use:   "months",
	Short: "Tasks and points per calendar month and per past period",
	Args:  cobra.NoArgs,
	RunE:  runStatsMonths,
}

var statsHideCmd = &cobra.Command{
	Use:   "hide <period-id|YYYY-MM>",
	Short: "Hide a period or month from the history views",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsHide,
}

var statsUnhideCmd = &cobra.Command{
	Use:   "unhide <period-id|YYYY-MM>",
	Short: "Show a hidden period or month again",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsUnhide,
}

var statsRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Unhide everything",
	Args:  cobra.NoArgs,
	RunE:  runStatsRestore,
}

func init() {
	statsCmd.AddCommand(statsMonthsCmd)
	statsCmd.AddCommand(statsHideCmd)
	statsCmd.AddCommand(statsUnhideCmd)
	statsCmd.AddCommand(statsRestoreCmd)

	statsCmd.Flags().StringVarP(&statsUser, "user", "u", "", "Show one user's breakdown (id or name)")
	statsCmd.Flags().StringVarP(&statsPeriod, "period", "p", "", "Period id (default: active period)")
	statsMonthsCmd.Flags().BoolVar(&statsDistinct, "distinct", false, "Count distinct tasks instead of executions")
}

// viewData is the selected household's state scoped to the period being
// viewed.
type viewData struct {
	doc     *domain.Document
	wg      string
	period  domain.Period
	execs   []domain.Execution
	tasks   map[string]domain.Task
	members []domain.User
}

func loadView(a *app, periodID string) (viewData, error) {
	if periodID != "" {
		a.periods.SetDisplayPeriod(&periodID)
	}
	p, err := a.periods.ViewPeriod()
	if err != nil {
		return viewData{}, err
	}
	doc, err := a.periods.Snapshot()
	if err != nil {
		return viewData{}, err
	}
	wg := doc.CurrentWG
	return viewData{
		doc:     doc,
		wg:      wg,
		period:  p,
		execs:   doc.HouseholdExecutions(wg),
		tasks:   doc.HouseholdTasks(wg),
		members: doc.Members(wg),
	}, nil
}

func runStats(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := loadView(a, statsPeriod)
	if err != nil {
		return err
	}
	if statsUser != "" {
		return printUserStats(a, v, statsUser)
	}

	ov := a.cache.Overall(v.period, v.execs, v.tasks, v.members)
	ui.Header(fmt.Sprintf("%s %s", ui.IconTrophy, v.period.Label()))
	ui.Kv("Points", fmt.Sprint(ov.TotalPoints))
	ui.Kv("Tasks", fmt.Sprintf("%d (%d hot)", ov.TotalTasks, ov.TotalHotTasks))
	ui.Kv("Members", fmt.Sprint(ov.TotalUsers))

	if len(ov.Leaderboard) > 0 {
		ui.Puts("")
		printLeaderboard(ov.Leaderboard, 0)
	}
	if len(ov.TopTasks) > 0 {
		ui.Header("Top tasks")
		for _, t := range ov.TopTasks {
			title := t.Title
			if t.IsAlarmed {
				title += " " + ui.IconFire
			}
			ui.Putsf("  %-20s %3dx %4d pts %3d%%", title, t.Count, t.TotalPoints, t.Percentage)
		}
	}
	printAchievements("Team achievements", ov.TeamAchievements)
	ui.Puts("")
	return nil
}

func printUserStats(a *app, v viewData, ref string) error {
	user, ok := resolveUser(v.doc, ref)
	var up *domain.User
	id := ref
	if ok {
		up, id = &user, user.ID
	}
	ua := a.cache.User(v.period, id, up, v.execs, v.tasks, time.Now(), a.cfg.Period.Location())
	ps := ua.Period

	ui.Header(fmt.Sprintf("%s %s · %s", ui.IconMedal, ua.Name, v.period.Label()))
	ui.Kv("Points", fmt.Sprintf("%d (%d hot, %d regular)", ps.TotalPoints, ps.HotTaskPoints, ps.RegularPoints))
	ui.Kv("Tasks", fmt.Sprintf("%d (avg %d pts)", ps.TotalTasks, ps.AveragePointsPerTask))
	if ps.FavoriteTask != nil {
		ui.Kv("Favorite", fmt.Sprintf("%s (%dx)", ps.FavoriteTask.Title, ps.FavoriteTask.Count))
	}
	ui.Kv(ui.IconFire+" Streak", fmt.Sprintf("%d days (best %d)", ua.CurrentStreak, ua.LongestStreak))
	if ua.TargetMonthlyPoints > 0 {
		ui.Kv("This month", fmt.Sprintf("%d / %d (%.1f%%)", ua.ThisMonthPoints, ua.TargetMonthlyPoints, ua.TargetProgress))
	}

	if len(ps.TaskDistribution) > 0 {
		ui.Header("Tasks")
		for _, s := range ps.TaskDistribution {
			ui.Putsf("  %-20s %3dx %3d%%  %s", s.Title, s.Count, s.Percentage, ui.Bar(s.Count, ps.TaskDistribution[0].Count, 20))
		}
	}
	if ua.TotalTasks > 0 {
		ui.Header("Weekdays (all time)")
		days := []string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}
		peak := lo.Max(ua.WeekdayDistribution[:])
		for i, n := range ua.WeekdayDistribution {
			ui.Putsf("  %s %3d  %s", days[i], n, ui.Bar(n, peak, 20))
		}
	}
	printAchievements("Achievements", ua.Achievements)
	ui.Puts("")
	return nil
}

func printAchievements(title string, all []achieve.Achievement) {
	ui.Header(title)
	for _, ach := range all {
		mark := ui.IconLock
		if ach.Unlocked {
			mark = ach.Icon
		}
		ui.Putsf("  %s %-20s %d/%d", mark, ach.Title, ach.Progress, ach.Target)
	}
}

func runStatsMonths(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}
	wg := doc.CurrentWG
	h := a.hidden.Load(wg)
	mode := aggregate.CountExecutions
	if statsDistinct {
		mode = aggregate.CountDistinctTasks
	}

	execs := doc.HouseholdExecutions(wg)
	months := lo.Filter(aggregate.Monthly(execs, a.cfg.Period.Location()), func(b aggregate.Bucket, _ int) bool {
		return !h.Has(b.Key)
	})
	ui.Header(ui.IconCal + " Months")
	printBuckets(months, mode)

	ps, err := a.periods.HistoricalPeriods(false)
	if err != nil {
		return err
	}
	ps = lo.Filter(ps, func(p domain.Period, _ int) bool { return !h.Has(p.ID) })
	if len(ps) > 0 {
		ui.Header(ui.IconArchive + " Periods")
		printBuckets(aggregate.ForPeriods(ps, execs), mode)
	}
	if !h.Empty() {
		ui.Tip(fmt.Sprintf("%d hidden; %s shows them again.", len(h.Periods)+len(h.Months), ui.Accent.Render("putz stats restore")))
	}
	ui.Puts("")
	return nil
}

func printBuckets(buckets []aggregate.Bucket, mode aggregate.CountMode) {
	if len(buckets) == 0 {
		ui.Puts(ui.Muted.Render("  nothing recorded"))
		return
	}
	peak := lo.MaxBy(buckets, func(a, b aggregate.Bucket) bool { return a.TaskCount(mode) > b.TaskCount(mode) }).TaskCount(mode)
	for _, b := range buckets {
		n := b.TaskCount(mode)
		ui.Putsf("  %-18s %4d tasks %5d pts  %s", b.Label, n, b.Points, ui.Bar(n, peak, 20))
	}
}

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func runStatsHide(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}
	key := args[0]
	if monthKeyPattern.MatchString(key) {
		err = a.hidden.HideMonth(doc.CurrentWG, key)
	} else {
		err = a.hidden.HidePeriod(doc.CurrentWG, key)
	}
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Hid %s", key))
	return nil
}

func runStatsUnhide(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}
	if err := a.hidden.Unhide(doc.CurrentWG, args[0]); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("%s is visible again", args[0]))
	return nil
}

func runStatsRestore(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}
	st, err := a.hidden.Restore(doc.CurrentWG)
	if errors.Is(err, hidden.ErrNothingToRestore) {
		ui.Inf("Nothing hidden.")
		return nil
	}
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Restored %d periods and %d months", len(st.Periods), len(st.Months)))
	return nil
}
