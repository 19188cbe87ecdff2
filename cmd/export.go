package cmd

import (
	"fmt"
	"strings"

	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/export"
	"github.com/putzplan/putz/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var exportPeriod string

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export leaderboard, tasks, periods and months to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportPeriod, "period", "p", "", "Period id (default: active period)")
}

func runExport(_ *cobra.Command, args []string) error {
	path := args[0]
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := loadView(a, exportPeriod)
	if err != nil {
		return err
	}
	ps, err := a.periods.HistoricalPeriods(true)
	if err != nil {
		return err
	}
	h := a.hidden.Load(v.wg)

	r := export.Report{
		Period:  v.period,
		Overall: a.cache.Overall(v.period, v.execs, v.tasks, v.members),
		PerTask: aggregate.ForPeriod(v.period, v.execs, v.tasks, v.members).PerTask,
		Periods: lo.Filter(ps, func(p domain.Period, _ int) bool { return !h.Has(p.ID) }),
		Months: lo.Filter(aggregate.Monthly(v.execs, a.cfg.Period.Location()), func(b aggregate.Bucket, _ int) bool {
			return !h.Has(b.Key)
		}),
	}
	if err := export.Save(path, r); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Wrote %s", path))
	return nil
}
