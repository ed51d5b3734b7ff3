package optimizer

import (
	"fmt"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// BuildExams maps a genotype back to one Exam per course, in course order.
// Slots are resolved to concrete dates and times and the student list is
// filled from enrollments. Rooms are left for the allocator.
func BuildExams(problem Problem, genes []int) ([]*model.Exam, error) {
	if len(genes) != len(problem.Courses) {
		return nil, fmt.Errorf("genotype has %d genes for %d courses", len(genes), len(problem.Courses))
	}

	courseStudents := problem.CourseStudents()
	exams := make([]*model.Exam, len(problem.Courses))

	for i, course := range problem.Courses {
		slotIdx := genes[i]
		if slotIdx < 0 || slotIdx >= len(problem.Slots) {
			return nil, fmt.Errorf("gene %d for course %s is outside slot range [0, %d)", slotIdx, course.ID, len(problem.Slots))
		}

		students := courseStudents[i]
		if students == nil {
			students = []string{}
		}

		exams[i] = &model.Exam{
			CourseID:   course.ID,
			CourseCode: course.Code,
			CourseName: course.Name,
			Slot:       problem.Slots[slotIdx],
			Students:   students,
		}
	}

	return exams, nil
}
