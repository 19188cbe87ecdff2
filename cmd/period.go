package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/hidden"
	"github.com/putzplan/putz/internal/period"
	"github.com/putzplan/putz/internal/tui"
	"github.com/putzplan/putz/internal/ui"
	"github.com/spf13/cobra"
)

var (
	periodStart  time.Time
	periodEnd    time.Time
	periodReset  bool
	periodTarget int
	periodAll    bool
)

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Manage accounting periods",
	RunE:  runPeriodShow,
}

var periodSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Start a new period, archiving the current one",
	Long: `Start a new active period. The current period is archived first with a
frozen summary. With --reset, the household's live executions and point
counters are cleared after archiving.`,
	Args: cobra.NoArgs,
	RunE: runPeriodSet,
}

var periodListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List past periods",
	Args:    cobra.NoArgs,
	RunE:    runPeriodList,
}

var periodDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a period",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeriodDelete,
}

var periodShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a period's leaderboard (picker when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPeriodShow,
}

func init() {
	periodCmd.AddCommand(periodSetCmd)
	periodCmd.AddCommand(periodListCmd)
	periodCmd.AddCommand(periodDeleteCmd)
	periodCmd.AddCommand(periodShowCmd)

	periodSetCmd.Flags().Var(newDateValue(&periodStart, time.UTC), "start", "First day of the period")
	periodSetCmd.Flags().Var(newDateValue(&periodEnd, time.UTC), "end", "Last day of the period (inclusive)")
	periodSetCmd.Flags().BoolVar(&periodReset, "reset", false, "Clear live executions after archiving (default: period.reset_on_new)")
	periodSetCmd.Flags().IntVar(&periodTarget, "target", 0, "Point target (default: sum of member targets)")

	periodListCmd.Flags().BoolVarP(&periodAll, "all", "a", false, "Include the active period")
}

func runPeriodSet(cmd *cobra.Command, _ []string) error {
	var opts []period.Option
	if periodTarget > 0 {
		opts = append(opts, period.WithTargetPoints(periodTarget))
	}
	a, err := openApp(opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	reset := a.cfg.Period.ResetOnNew
	if cmd.Flags().Changed("reset") {
		reset = periodReset
	}

	p, err := a.periods.SetPeriod(periodStart, periodEnd, reset)
	var ve *period.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("%w (see %s)", err, ui.Accent.Render("putz period set --help"))
	}
	if err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Period %s started", ui.Accent.Render(p.Label())))
	ui.Kv("Id", p.ID)
	ui.Kv("Target", fmt.Sprintf("%d points", p.TargetPoints))
	if reset {
		ui.Inf("Live executions were cleared after archiving.")
	}
	return nil
}

func runPeriodList(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ps, err := a.periods.HistoricalPeriods(periodAll)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		ui.Puts(ui.Muted.Render("  No periods yet."))
		return nil
	}

	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}
	hiddenState := a.hidden.Load(doc.CurrentWG)

	ui.Header(ui.IconCal + " Periods")
	for _, p := range ps {
		ui.Puts(periodLine(p, hiddenState))
	}
	ui.Puts("")
	return nil
}

func periodLine(p domain.Period, h hidden.State) string {
	line := fmt.Sprintf("  %-16s %s  %s", p.Label(), ui.Muted.Render(p.ID), periodStatus(p))
	if h.Has(p.ID) {
		line += " " + ui.Muted.Render("(hidden)")
	}
	return line
}

func periodStatus(p domain.Period) string {
	switch p.Status() {
	case domain.StatusActive:
		return ui.Success.Render("active")
	case domain.StatusArchived:
		return fmt.Sprintf("%s %d pts, %d tasks", ui.IconArchive, p.Summary.TotalPoints, p.Summary.TotalExecutions)
	default:
		return ui.Muted.Render("legacy")
	}
}

func runPeriodDelete(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.periods.DeletePeriod(args[0]); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Deleted period %s", args[0]))
	return nil
}

func runPeriodShow(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case len(args) == 1:
		a.periods.SetDisplayPeriod(&args[0])
	case tui.IsTTY():
		ps, err := a.periods.HistoricalPeriods(true)
		if err != nil {
			return err
		}
		if len(ps) > 0 {
			chosen, err := tui.PickPeriod("Choose a period", ps)
			if err != nil {
				return err
			}
			if chosen == nil {
				return nil
			}
			a.periods.SetDisplayPeriod(&chosen.ID)
		}
	}

	p, err := a.periods.ViewPeriod()
	if err != nil {
		return err
	}
	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}
	wg := doc.CurrentWG
	ov := a.cache.Overall(p, doc.HouseholdExecutions(wg), doc.HouseholdTasks(wg), doc.Members(wg))

	ui.Header(ui.IconCal + " " + p.Label())
	ui.Kv("Status", periodStatus(p))
	ui.Kv("Range", fmt.Sprintf("%s – %s", p.StartDate.Format("02.01.2006"), p.EndDate.Format("02.01.2006")))
	ui.Kv("Points", fmt.Sprintf("%d / %d", ov.TotalPoints, p.TargetPoints))
	ui.Kv("Tasks", fmt.Sprint(ov.TotalTasks))
	if len(ov.Leaderboard) > 0 {
		ui.Puts("")
		printLeaderboard(ov.Leaderboard, 0)
	}
	if p.Status() == domain.StatusArchived {
		ui.Puts("")
		for _, m := range p.Summary.Members {
			ui.Putsf("  %-12s %5.1f%% of target", memberName(doc, m.UserID), m.Achievement)
		}
	}
	ui.Puts("")
	return nil
}

func memberName(doc *domain.Document, id string) string {
	if u, ok := doc.Users[id]; ok && u.Name != "" {
		return u.Name
	}
	return id
}
