package optimizer

import (
	"fmt"

	"github.com/jakechorley/exam-scheduler/pkg/core/conflictgraph"
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// Problem is the read-only input to a search. Gene i of every individual is
// the slot index of Courses[i].
type Problem struct {
	Courses     []model.Course
	Slots       []model.TimeSlot
	Enrollments []model.Enrollment

	// Graph is required when ConflictSource is ConflictSourceGraph
	Graph          *conflictgraph.Graph
	ConflictSource ConflictSource

	LargeClassThreshold int
}

// CourseStudents returns, per gene index, the students enrolled in that course
// in enrollment order. Duplicate enrollments and enrollments for unknown
// courses are dropped.
func (p Problem) CourseStudents() [][]string {
	geneIndex := p.geneIndex()
	students := make([][]string, len(p.Courses))
	seen := make(map[model.Enrollment]bool, len(p.Enrollments))

	for _, e := range p.Enrollments {
		idx, ok := geneIndex[e.CourseID]
		if !ok || seen[e] {
			continue
		}
		seen[e] = true
		students[idx] = append(students[idx], e.StudentID)
	}

	return students
}

func (p Problem) geneIndex() map[string]int {
	index := make(map[string]int, len(p.Courses))
	for i, course := range p.Courses {
		index[course.ID] = i
	}
	return index
}

// slotDays maps every slot to a dense day index, in order of first appearance
func (p Problem) slotDays() ([]int, int) {
	dayIndex := make(map[string]int)
	slotDay := make([]int, len(p.Slots))
	for i, slot := range p.Slots {
		idx, ok := dayIndex[slot.Date]
		if !ok {
			idx = len(dayIndex)
			dayIndex[slot.Date] = idx
		}
		slotDay[i] = idx
	}
	return slotDay, len(dayIndex)
}

// Constraints builds the constraint set for this problem
func (p Problem) Constraints() ([]Constraint, error) {
	slotDay, dayCount := p.slotDays()
	courseStudents := p.CourseStudents()

	courseSizes := make([]int, len(courseStudents))
	for i, students := range courseStudents {
		courseSizes[i] = len(students)
	}

	threshold := p.LargeClassThreshold
	if threshold <= 0 {
		threshold = DefaultLargeClassThreshold
	}

	var hard Constraint
	switch p.ConflictSource {
	case ConflictSourceEnrollments, "":
		hard = NewSameDayConstraint(p.studentCourses(), slotDay, dayCount)

	case ConflictSourceGraph:
		if p.Graph == nil {
			return nil, fmt.Errorf("conflict source %q requires a conflict graph", p.ConflictSource)
		}
		hard = NewGraphConflictConstraint(p.graphEdges(), slotDay)

	default:
		return nil, fmt.Errorf("unknown conflict source %q", p.ConflictSource)
	}

	return []Constraint{
		hard,
		NewLargeClassConstraint(courseSizes, threshold),
	}, nil
}

// studentCourses groups gene indices by student, students in order of first
// enrollment
func (p Problem) studentCourses() [][]int {
	geneIndex := p.geneIndex()
	studentIndex := make(map[string]int)
	seen := make(map[model.Enrollment]bool, len(p.Enrollments))
	var result [][]int

	for _, e := range p.Enrollments {
		courseIdx, ok := geneIndex[e.CourseID]
		if !ok || seen[e] {
			continue
		}
		seen[e] = true

		sIdx, ok := studentIndex[e.StudentID]
		if !ok {
			sIdx = len(result)
			studentIndex[e.StudentID] = sIdx
			result = append(result, nil)
		}
		result[sIdx] = append(result[sIdx], courseIdx)
	}

	return result
}

// graphEdges re-expresses the graph's edges in gene indices. Edges touching
// courses outside the problem are skipped.
func (p Problem) graphEdges() []conflictgraph.Edge {
	geneIndex := p.geneIndex()
	nodes := p.Graph.Nodes()
	edges := make([]conflictgraph.Edge, 0, p.Graph.EdgeCount())

	for _, e := range p.Graph.Edges() {
		from, okFrom := geneIndex[nodes[e.From]]
		to, okTo := geneIndex[nodes[e.To]]
		if !okFrom || !okTo {
			continue
		}
		edges = append(edges, conflictgraph.Edge{From: from, To: to, Weight: e.Weight})
	}

	return edges
}
