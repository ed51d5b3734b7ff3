package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/pkg/core/calendar"
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/services"
	"github.com/jakechorley/exam-scheduler/pkg/export"
	"github.com/jakechorley/exam-scheduler/pkg/metrics"
)

// ScheduleCmd creates the schedule command
func ScheduleCmd(app *AppContext) *cobra.Command {
	var paths InputPaths
	var seed int64
	var jsonPath, xlsxPath, pdfPath, metricsPath string
	var startDate, endDate, slots string
	var bufferDays int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule exams, rooms, seats and invigilators from input tables",
		Long: `Run the full scheduling pipeline over the given students, courses and rooms tables.
Tables may be .csv or .xlsx. The timetable is saved to the database when database_url
is configured, unless --dry-run is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("schedule command",
				zap.String("students", paths.Students),
				zap.String("courses", paths.Courses),
				zap.String("rooms", paths.Rooms),
				zap.String("teachers", paths.Teachers),
				zap.String("holidays", paths.Holidays),
				zap.Bool("dry_run", dryRun))

			input, err := LoadInput(paths)
			if err != nil {
				return fmt.Errorf("failed to load input: %w", err)
			}

			opts := services.ScheduleOptions{DryRun: dryRun}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			if err := applyPeriodFlags(cmd, &opts, startDate, endDate, slots, bufferDays); err != nil {
				return err
			}

			var recorder *metrics.Recorder
			if metricsPath != "" {
				recorder = metrics.New()
			}

			start := time.Now()
			tt, err := services.RunSchedule(app.Ctx, input, app.Cfg, app.store(), app.Logger, opts)
			if err != nil {
				recorder.ObserveRunFailure(err)
				if werr := recorder.WriteTextfile(metricsPath); werr != nil {
					app.Logger.Warn("Failed to write metrics file", zap.Error(werr))
				}
				return fmt.Errorf("scheduling failed: %w", err)
			}
			recorder.ObserveRun(tt, time.Since(start))

			persisted := app.Database != nil && !dryRun
			printTimetable(os.Stdout, tt, persisted)

			if jsonPath != "" {
				if err := writeJSON(jsonPath, tt); err != nil {
					return err
				}
				app.Logger.Info("Wrote timetable JSON", zap.String("path", jsonPath))
			}

			if xlsxPath != "" {
				if err := writeWorkbook(xlsxPath, tt); err != nil {
					return err
				}
				app.Logger.Info("Wrote timetable workbook", zap.String("path", xlsxPath))
			}

			if pdfPath != "" {
				if err := writePDF(pdfPath, tt); err != nil {
					return err
				}
				app.Logger.Info("Wrote timetable PDF", zap.String("path", pdfPath))
			}

			if metricsPath != "" {
				if err := recorder.WriteTextfile(metricsPath); err != nil {
					return err
				}
				app.Logger.Info("Wrote run metrics", zap.String("path", metricsPath))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&paths.Students, "students", "", "Students table (.csv or .xlsx)")
	cmd.Flags().StringVar(&paths.Courses, "courses", "", "Courses table (.csv or .xlsx)")
	cmd.Flags().StringVar(&paths.Rooms, "rooms", "", "Rooms table (.csv or .xlsx)")
	cmd.Flags().StringVar(&paths.Teachers, "teachers", "", "Teachers table; a default roster is used when omitted")
	cmd.Flags().StringVar(&paths.Holidays, "holidays", "", "Holidays table with a date column")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override optimization.random_seed")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the timetable as JSON to this path (- for stdout)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the timetable workbook to this path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Write the printable timetable and seat plans to this path")
	cmd.Flags().StringVar(&metricsPath, "metrics-file", "", "Write run metrics in the Prometheus text format to this path")
	cmd.Flags().StringVar(&startDate, "start-date", "", "First exam day (YYYY-MM-DD); replaces exam_days with a range up to --end-date")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Last exam day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&slots, "slots", "", "Daily exam slots, e.g. 09:00-12:00,14:00-17:00")
	cmd.Flags().IntVar(&bufferDays, "buffer-days", 0, "Override buffer_days before the makeup window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save the run to the database")

	return cmd
}

func printTimetable(w io.Writer, tt *model.Timetable, persisted bool) {
	fmt.Fprintf(w, "\n📅 Exam Timetable\n\n")
	fmt.Fprintf(w, "Run ID:        %s\n", tt.RunID)
	fmt.Fprintf(w, "Seed:          %d\n", tt.Seed)
	fmt.Fprintf(w, "Score:         %.2f\n", tt.Score)
	fmt.Fprintf(w, "Generations:   %d\n", tt.Generations)
	fmt.Fprintf(w, "Conflicts:     %d courses, %d edges (density %.3f)\n",
		tt.ConflictGraph.Nodes, tt.ConflictGraph.Edges, tt.ConflictGraph.Density)
	if persisted {
		fmt.Fprintf(w, "Status:        ✅ saved to database\n")
	} else {
		fmt.Fprintf(w, "Status:        🧪 not saved\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-10s %-12s %-10s %-11s %-14s %8s  %s\n", "Course", "Code", "Date", "Time", "Status", "Students", "Rooms")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, e := range tt.Exams {
		roomIDs := make([]string, len(e.Assignments))
		for i, a := range e.Assignments {
			roomIDs[i] = a.RoomID
			if a.Invigilator != nil {
				roomIDs[i] += " (" + a.Invigilator.TeacherID + ")"
			}
		}
		fmt.Fprintf(w, "%-10s %-12s %-10s %-11s %-14s %8d  %s\n",
			e.CourseID, e.CourseCode, e.Slot.Date, e.Slot.TimeRange(), e.Status,
			e.StudentCount(), strings.Join(roomIDs, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Scheduled: %d  Partial: %d  Unschedulable: %d\n\n",
		tt.CountByStatus(model.StatusScheduled),
		tt.CountByStatus(model.StatusPartial),
		tt.CountByStatus(model.StatusUnschedulable))

	if len(tt.Unschedulable) > 0 {
		fmt.Fprintf(w, "⚠️  Needs attention (%d):\n", len(tt.Unschedulable))
		for _, u := range tt.Unschedulable {
			fmt.Fprintf(w, "  • %s (%s %s, %d students): %s\n",
				u.CourseID, u.SlotDate, u.SlotTime, u.StudentCount, strings.Join(u.Reasons, "; "))
		}
		fmt.Fprintln(w)
	}

	if len(tt.MakeupSchedule) > 0 {
		fmt.Fprintf(w, "🔁 Makeup proposals (%d):\n", len(tt.MakeupSchedule))
		for _, m := range tt.MakeupSchedule {
			if m.Slot == nil {
				fmt.Fprintf(w, "  • %s: no slot available\n", m.CourseID)
				continue
			}
			fmt.Fprintf(w, "  • %s: %s %s\n", m.CourseID, m.Slot.Date, m.Slot.TimeRange())
		}
		fmt.Fprintln(w)
	}

	if len(tt.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d):\n", len(tt.Warnings))
		for _, warning := range tt.Warnings {
			fmt.Fprintf(w, "  • %s\n", warning)
		}
		fmt.Fprintln(w)
	}
}

func writeJSON(path string, tt *model.Timetable) error {
	data, err := json.MarshalIndent(tt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode timetable: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeWorkbook(path string, tt *model.Timetable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteWorkbook(tt, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePDF(path string, tt *model.Timetable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WritePDF(tt, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// applyPeriodFlags copies the exam period overrides onto opts
func applyPeriodFlags(cmd *cobra.Command, opts *services.ScheduleOptions, startDate, endDate, slots string, bufferDays int) error {
	if (startDate == "") != (endDate == "") {
		return fmt.Errorf("--start-date and --end-date must be given together")
	}
	if startDate != "" {
		days, err := calendar.DateRange(startDate, endDate)
		if err != nil {
			return err
		}
		opts.ExamDays = days
	}

	if slots != "" {
		templates, err := calendar.ParseSlotTemplates(slots)
		if err != nil {
			return err
		}
		opts.ExamSlots = templates
	}

	if cmd.Flags().Changed("buffer-days") {
		if bufferDays < 0 {
			return fmt.Errorf("--buffer-days must not be negative")
		}
		opts.BufferDays = &bufferDays
	}
	return nil
}
