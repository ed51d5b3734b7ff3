package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/pkg/db"
)

// HistoryCmd creates the history command
func HistoryCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "List saved scheduling runs, or the makeup proposals of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Database == nil {
				return fmt.Errorf("history requires database_url to be configured")
			}

			if len(args) == 1 {
				app.Logger.Debug("history command", zap.String("run_id", args[0]))

				makeups, err := app.Database.GetMakeups(app.Ctx, args[0])
				if err != nil {
					return err
				}
				printMakeups(os.Stdout, args[0], makeups)
				return nil
			}

			app.Logger.Debug("history command")

			runs, err := app.Database.GetRuns(app.Ctx)
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}

	return cmd
}

func printRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs saved yet")
		return
	}

	fmt.Fprintf(w, "\n%-36s  %-20s  %8s  %5s  %9s  %7s  %13s\n",
		"Run ID", "Created", "Score", "Exams", "Scheduled", "Partial", "Unschedulable")
	fmt.Fprintln(w, strings.Repeat("─", 112))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %8.2f  %5d  %9d  %7d  %13d\n",
			r.ID, r.CreatedAt, r.Score, r.ExamCount, r.ScheduledCount, r.PartialCount, r.UnschedulableCount)
	}
	fmt.Fprintln(w)
}

func printMakeups(w io.Writer, runID string, makeups []db.MakeupRecord) {
	if len(makeups) == 0 {
		fmt.Fprintf(w, "No makeup proposals for run %s\n", runID)
		return
	}

	fmt.Fprintf(w, "\n🔁 Makeup proposals for run %s\n\n", runID)
	for _, m := range makeups {
		when := "no slot available"
		if m.MakeupDate != "" {
			when = m.MakeupDate + " " + m.MakeupTime
		}
		fmt.Fprintf(w, "  • %-10s %-24s %3d students  %s\n", m.CourseID, when, m.StudentCount, strings.Join(m.Reasons, "; "))
	}
	fmt.Fprintln(w)
}
