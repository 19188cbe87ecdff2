package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/putzplan/putz/internal/analytics"
	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/period"
	"github.com/putzplan/putz/internal/tips"
	"github.com/putzplan/putz/internal/ui"
	"github.com/putzplan/putz/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "putz",
	Short: "Fair chores for shared households",
	Long:  `putz tracks who did which chore, awards points per period and keeps the household honest.`,
	RunE:  runDashboard,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		ui.SetupColor()
	},
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Err(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(periodCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// runDashboard shows the active period at a glance when you just type `putz`.
func runDashboard(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ui.Puts(ui.Greet(a.cfg.User.Name))
	ui.Puts("")

	doc, err := a.periods.Snapshot()
	if errors.Is(err, period.ErrNoHousehold) {
		ui.Puts("  No household yet. Import one to get started.")
		ui.Tip(fmt.Sprintf("%s loads households, users and tasks.", ui.Accent.Render("putz import <file.json>")))
		ui.Puts("")
		return nil
	}
	if err != nil {
		return err
	}

	wg := doc.CurrentWG
	ui.Kv("🏠 Household", householdName(doc, wg))

	p, err := a.periods.ActivePeriod()
	if errors.Is(err, period.ErrNoActivePeriod) {
		ui.Kv(ui.IconCal+" Period", ui.Muted.Render("none"))
		ui.Tip(fmt.Sprintf("%s to start one.", ui.Accent.Render("putz period set --start <date> --end <date>")))
		ui.Puts("")
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	ov := a.cache.Overall(p, doc.HouseholdExecutions(wg), doc.HouseholdTasks(wg), doc.Members(wg))

	ui.Kv(ui.IconCal+" Period", fmt.Sprintf("%s (%s)", p.Label(), daysLeft(p.EndDate, now)))
	ui.Kv(ui.IconStar+" Points", fmt.Sprintf("%d / %d  %s", ov.TotalPoints, p.TargetPoints, ui.Bar(ov.TotalPoints, p.TargetPoints, 20)))
	ui.Kv(ui.IconDone+" Tasks", fmt.Sprintf("%d done, %d hot", ov.TotalTasks, ov.TotalHotTasks))

	if len(ov.Leaderboard) > 0 {
		ui.Puts("")
		printLeaderboard(ov.Leaderboard, 3)
	}

	ui.Puts("")
	ui.Kv("⚙️  putz", version.Short())
	ui.Tip(tips.Daily(now))
	ui.Puts("")
	return nil
}

func daysLeft(end, now time.Time) string {
	d := int(end.Sub(now).Hours() / 24)
	switch {
	case end.Before(now):
		return "ended"
	case d == 0:
		return "last day"
	case d == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", d)
	}
}

// printLeaderboard prints up to limit rows; limit <= 0 prints all.
func printLeaderboard(rows []analytics.LeaderboardEntry, limit int) {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	top := 0
	if len(rows) > 0 {
		top = rows[0].TotalPoints
	}
	width := min(ui.Width()-40, 30)
	for _, e := range rows {
		medal := "  "
		if e.Rank == 1 && e.TotalPoints > 0 {
			medal = ui.IconTrophy
		}
		ui.Putsf("  %s %d. %-12s %5d pts  %s", medal, e.Rank, e.Name, e.TotalPoints, ui.Bar(e.TotalPoints, top, width))
	}
}

func householdName(doc *domain.Document, id string) string {
	if h, ok := doc.Households[id]; ok && h.Name != "" {
		return h.Name
	}
	return id
}
