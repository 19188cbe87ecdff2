package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/period"
	"github.com/putzplan/putz/internal/ui"
	"github.com/spf13/cobra"
)

var (
	doneBy    string
	doneBonus int
	doneAt    time.Time
)

var doneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Record a completed chore",
	Long: `Record that a chore was done. The task may be given by id or by title.

The executor defaults to user.id from the config. A bonus adds points on top
of the task's base value and marks the completion as hot.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDone,
}

func init() {
	doneCmd.Flags().StringVar(&doneBy, "by", "", "User id or name (default: user.id)")
	doneCmd.Flags().IntVar(&doneBonus, "bonus", 0, "Bonus points on top of the task value")
	doneCmd.Flags().Var(newDateValue(&doneAt, time.Local), "at", "When it was done (default: now)")
}

func runDone(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.periods.Snapshot()
	if err != nil {
		return err
	}

	task, ok := resolveTask(doc, strings.Join(args, " "))
	if !ok {
		return fmt.Errorf("%w: %q", period.ErrUnknownTask, strings.Join(args, " "))
	}
	who := doneBy
	if who == "" {
		who = a.cfg.User.ID
	}
	if who == "" {
		return fmt.Errorf("no executor: pass --by or run %s", ui.Accent.Render("putz config set user.id <id>"))
	}
	user, ok := resolveUser(doc, who)
	if !ok {
		return fmt.Errorf("%w: %q", period.ErrUnknownUser, who)
	}

	e, err := a.periods.RecordExecution(task.ID, user.ID, doneAt, doneBonus)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("%s: %s +%d", user.Name, task.Title, e.PointsAwarded)
	if task.IsAlarmed || e.PointsAwarded > task.PointsPerExecution {
		msg += " " + ui.Hot.Render(ui.IconFire+" hot")
	}
	ui.Ok(msg)
	return nil
}

// resolveTask finds a task of the selected household by id, then by title
// ignoring case.
func resolveTask(doc *domain.Document, ref string) (domain.Task, bool) {
	tasks := doc.HouseholdTasks(doc.CurrentWG)
	if t, ok := tasks[ref]; ok {
		return t, true
	}
	for _, t := range tasks {
		if strings.EqualFold(t.Title, ref) {
			return t, true
		}
	}
	return domain.Task{}, false
}

// resolveUser finds a user by id, then a household member by name.
func resolveUser(doc *domain.Document, ref string) (domain.User, bool) {
	if u, ok := doc.Users[ref]; ok {
		return u, true
	}
	for _, u := range doc.Members(doc.CurrentWG) {
		if strings.EqualFold(u.Name, ref) {
			return u, true
		}
	}
	return domain.User{}, false
}
