package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/pkg/core/conflictgraph"
	"github.com/jakechorley/exam-scheduler/pkg/ingest"
)

// GraphCmd creates the graph command
func GraphCmd(app *AppContext) *cobra.Command {
	var studentsPath, coursesPath string
	var top int

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show conflict graph statistics for the given students and courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("graph command",
				zap.String("students", studentsPath),
				zap.String("courses", coursesPath),
				zap.Int("top", top))

			students, courses, err := loadStudentsAndCourses(studentsPath, coursesPath)
			if err != nil {
				return fmt.Errorf("failed to load input: %w", err)
			}

			enrollments, unknown := ingest.ResolveEnrollments(students, courses)
			for _, code := range unknown {
				app.Logger.Warn("Unknown course code in enrollments", zap.String("code", code))
			}

			printGraph(os.Stdout, conflictgraph.Build(enrollments), top)
			return nil
		},
	}

	cmd.Flags().StringVar(&studentsPath, "students", "", "Students table (.csv or .xlsx)")
	cmd.Flags().StringVar(&coursesPath, "courses", "", "Courses table (.csv or .xlsx)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of most conflicted courses to list")

	return cmd
}

type courseDegree struct {
	CourseID string
	Degree   int
}

// mostConflicted lists up to n courses by degree, highest first; ties keep
// node order
func mostConflicted(g *conflictgraph.Graph, n int) []courseDegree {
	nodes := g.Nodes()
	out := make([]courseDegree, len(nodes))
	for i, id := range nodes {
		out[i] = courseDegree{CourseID: id, Degree: g.Degree(id)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Degree > out[j].Degree
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func printGraph(w io.Writer, g *conflictgraph.Graph, top int) {
	stats := g.Stats()

	fmt.Fprintf(w, "\n🕸  Conflict Graph\n\n")
	fmt.Fprintf(w, "Courses:        %d\n", stats.Nodes)
	fmt.Fprintf(w, "Conflicts:      %d\n", stats.Edges)
	fmt.Fprintf(w, "Density:        %.3f\n", stats.Density)
	fmt.Fprintf(w, "Average degree: %.2f\n", stats.AvgDegree)
	if stats.MaxDegreeCourse != "" {
		fmt.Fprintf(w, "Most connected: %s\n", stats.MaxDegreeCourse)
	}
	fmt.Fprintln(w)

	ranked := mostConflicted(g, top)
	if len(ranked) == 0 {
		return
	}
	fmt.Fprintf(w, "%-12s %6s\n", "Course", "Degree")
	for _, cd := range ranked {
		fmt.Fprintf(w, "%-12s %6d\n", cd.CourseID, cd.Degree)
	}
	fmt.Fprintln(w)
}
