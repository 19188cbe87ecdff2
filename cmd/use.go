package cmd

import (
	"fmt"

	"github.com/putzplan/putz/internal/ui"
	"github.com/spf13/cobra"
)

var useCmd = &cobra.Command{
	Use:   "use <household>",
	Short: "Select the household to work with",
	Args:  cobra.ExactArgs(1),
	RunE:  runUse,
}

func runUse(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.periods.SelectHousehold(args[0]); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Now using %s", ui.Accent.Render(args[0])))
	return nil
}
