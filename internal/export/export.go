// Package export writes analytics as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/putzplan/putz/internal/aggregate"
	"github.com/putzplan/putz/internal/analytics"
	"github.com/putzplan/putz/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names, in workbook order.
const (
	SheetLeaderboard = "Leaderboard"
	SheetTasks       = "Tasks"
	SheetPeriods     = "Periods"
	SheetMonths      = "Months"
)

// Report is everything that goes into one workbook.
type Report struct {
	Period  domain.Period
	Overall analytics.Overall
	// PerTask is the full task breakdown; Overall only carries the top few.
	PerTask []aggregate.TaskStats
	Periods []domain.Period
	Months  []aggregate.Bucket
}

// Workbook builds the workbook for r. The caller must Close it.
func Workbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetLeaderboard); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetTasks, SheetPeriods, SheetMonths} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	steps := []func(*excelize.File, Report) error{
		writeLeaderboard,
		writeTasks,
		writePeriods,
		writeMonths,
	}
	for _, step := range steps {
		if err := step(f, r); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write streams the workbook for r to w.
func Write(w io.Writer, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Save writes the workbook for r to path.
func Save(path string, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeLeaderboard(f *excelize.File, r Report) error {
	if err := setRow(f, SheetLeaderboard, 1, "Period", r.Period.Label(), string(r.Period.Status())); err != nil {
		return err
	}
	if err := setRow(f, SheetLeaderboard, 2, "Total points", r.Overall.TotalPoints, "Total tasks", r.Overall.TotalTasks); err != nil {
		return err
	}
	if err := setRow(f, SheetLeaderboard, 4, "Rank", "Name", "Points", "Tasks", "Hot tasks"); err != nil {
		return err
	}
	for i, e := range r.Overall.Leaderboard {
		if err := setRow(f, SheetLeaderboard, i+5, e.Rank, e.Name, e.TotalPoints, e.TotalTasks, e.HotTaskCount); err != nil {
			return err
		}
	}
	return nil
}

func writeTasks(f *excelize.File, r Report) error {
	if err := setRow(f, SheetTasks, 1, "Task", "Count", "Points", "Share %", "Hot"); err != nil {
		return err
	}
	for i, t := range r.PerTask {
		if err := setRow(f, SheetTasks, i+2, t.Title, t.Count, t.TotalPoints, t.Percentage, t.IsAlarmed); err != nil {
			return err
		}
	}
	return nil
}

func writePeriods(f *excelize.File, r Report) error {
	if err := setRow(f, SheetPeriods, 1, "Name", "Start", "End", "Status", "Target", "Points", "Executions"); err != nil {
		return err
	}
	for i, p := range r.Periods {
		var points, execs any = "", ""
		if p.Summary != nil {
			points, execs = p.Summary.TotalPoints, p.Summary.TotalExecutions
		}
		if err := setRow(f, SheetPeriods, i+2,
			p.Label(),
			p.StartDate.Format("2006-01-02"),
			p.EndDate.Format("2006-01-02"),
			string(p.Status()),
			p.TargetPoints,
			points,
			execs,
		); err != nil {
			return err
		}
	}
	return nil
}

func writeMonths(f *excelize.File, r Report) error {
	if err := setRow(f, SheetMonths, 1, "Month", "Executions", "Distinct tasks", "Points"); err != nil {
		return err
	}
	for i, b := range r.Months {
		if err := setRow(f, SheetMonths, i+2, b.Label, b.Executions, b.DistinctTasks, b.Points); err != nil {
			return err
		}
	}
	return nil
}
