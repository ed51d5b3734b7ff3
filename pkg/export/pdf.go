package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/samber/lo"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

const (
	pageWidth   = 190.0 // A4 minus 10mm margins
	rowHeight   = 7.0
	headerColor = 200
)

// WritePDF renders a printable timetable: a summary of every sitting, then a
// seat plan for each room used in each slot
func WritePDF(tt *model.Timetable, w io.Writer) error {
	pdf := BuildPDF(tt)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// BuildPDF lays out the document without writing it
func BuildPDF(tt *model.Timetable) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	seated := lo.Filter(tt.Exams, func(e *model.Exam, _ int) bool {
		return seatedCount(e) > 0
	})
	sittings := groupSittings(seated)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "EXAM TIMETABLE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeSummary(pdf, sittings, newRoster(tt.Students))

	for _, s := range sittings {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 9, fmt.Sprintf("Seat plans: %s %s", s.slot.Date, s.slot.TimeRange()), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		for _, e := range s.exams {
			for _, a := range e.Assignments {
				if len(a.Seats) > 0 {
					writeSeatPlan(pdf, e, a)
				}
			}
		}
	}

	return pdf
}

// sitting is every exam sharing one slot
type sitting struct {
	slot  model.TimeSlot
	exams []*model.Exam
}

// groupSittings groups exams by slot in chronological order, keeping exam
// order within a slot
func groupSittings(exams []*model.Exam) []sitting {
	index := make(map[string]int)
	var out []sitting
	for _, e := range exams {
		key := e.Slot.Key()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, sitting{slot: e.Slot})
		}
		out[i].exams = append(out[i].exams, e)
	}

	// Keys are date then HH:MM, so they sort chronologically
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].slot.Key() < out[j].slot.Key()
	})
	return out
}

func seatedCount(e *model.Exam) int {
	return lo.SumBy(e.Assignments, func(a model.RoomAssignment) int {
		return len(a.Students)
	})
}

func writeSummary(pdf *gofpdf.Fpdf, sittings []sitting, people roster) {
	widths := []float64{22, 22, 28, 22, 40, 40, 16}
	headers := []string{"Date", "Time", "Batch", "Section", "Course Codes", "Courses", "Students"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(headerColor, headerColor, headerColor)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, s := range sittings {
		codes := lo.Map(s.exams, func(e *model.Exam, _ int) string { return e.CourseCode })
		names := lo.Map(s.exams, func(e *model.Exam, _ int) string { return e.CourseName })
		students := lo.SumBy(s.exams, seatedCount)
		batches, sections := people.describe(s.exams)

		cells := []string{
			s.slot.Date,
			s.slot.TimeRange(),
			strings.Join(batches, ", "),
			strings.Join(sections, ", "),
			strings.Join(lo.Compact(codes), ", "),
			strings.Join(lo.Compact(names), ", "),
			fmt.Sprintf("%d", students),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], rowHeight, truncate(pdf, c, widths[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// writeSeatPlan draws one room assignment as a row by column grid
func writeSeatPlan(pdf *gofpdf.Fpdf, e *model.Exam, a model.RoomAssignment) {
	rows := lo.MaxBy(a.Seats, func(x, y model.SeatAssignment) bool { return x.Row > y.Row }).Row
	cols := lo.MaxBy(a.Seats, func(x, y model.SeatAssignment) bool { return x.Column > y.Column }).Column

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
	}
	for _, s := range a.Seats {
		grid[s.Row-1][s.Column-1] = s.StudentID
	}

	invigilator := "UNASSIGNED"
	if a.Invigilator != nil {
		invigilator = a.Invigilator.TeacherID
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(headerColor, headerColor, headerColor)
	title := fmt.Sprintf("Room %s  |  %s %s  |  %d students  |  Invigilator %s",
		a.RoomID, e.CourseCode, e.CourseName, len(a.Students), invigilator)
	pdf.CellFormat(pageWidth, 8, truncate(pdf, title, pageWidth), "1", 1, "L", true, 0, "")

	width := pageWidth / float64(cols)
	pdf.SetFont("Arial", "B", 8)
	for c := 0; c < cols; c++ {
		pdf.CellFormat(width, 6, fmt.Sprintf("Column %d", c+1), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range grid {
		for _, id := range row {
			pdf.CellFormat(width, 6, truncate(pdf, id, width), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// truncate shortens s to fit a cell of the given width in the current font
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	const padding = 2
	if pdf.GetStringWidth(s) <= width-padding {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width-padding {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// roster looks up the reporting fields of seated students
type roster map[string]model.Student

func newRoster(students []model.Student) roster {
	return lo.KeyBy(students, func(s model.Student) string { return s.ID })
}

// describe returns the sorted distinct batches and sections of everyone
// seated in the given exams
func (r roster) describe(exams []*model.Exam) (batches, sections []string) {
	for _, e := range exams {
		for _, a := range e.Assignments {
			for _, id := range a.Students {
				student, ok := r[id]
				if !ok {
					student = model.Student{ID: id}
				}
				if b := studentBatch(student); b != "" {
					batches = append(batches, b)
				}
				if student.Section != "" {
					sections = append(sections, student.Section)
				}
			}
		}
	}

	batches, sections = lo.Uniq(batches), lo.Uniq(sections)
	sort.Strings(batches)
	sort.Strings(sections)
	return batches, sections
}

// studentBatch is the intake prefix of a student ID: its first 4 digits, or
// first 5 for evening students
func studentBatch(s model.Student) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s.ID)

	n := 4
	if strings.Contains(strings.ToLower(s.BatchType), "evening") {
		n = 5
	}
	return digits[:min(n, len(digits))]
}
