package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/putzplan/putz/internal/period"
	"github.com/putzplan/putz/internal/ui"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import households, users, tasks, executions and periods",
	Long: `Import reference data and history from a JSON export.

Records replace existing ones with the same id. Periods may use any of the
field spellings older exports produced; records without usable dates are
skipped with a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	var in period.ImportData
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.periods.Import(in)
	if err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Imported %s", args[0]))
	ui.Kv("Households", fmt.Sprint(rep.Households))
	ui.Kv("Users", fmt.Sprint(rep.Users))
	ui.Kv("Tasks", fmt.Sprint(rep.Tasks))
	ui.Kv("Executions", fmt.Sprint(rep.Executions))
	ui.Kv("Periods", fmt.Sprint(rep.Periods))
	for _, w := range rep.Warnings {
		ui.Warn("skipped " + w.String())
	}
	return nil
}
