package optimizer

// SameDayConstraint penalises students sitting more than one exam on the same
// calendar date. For a student with c > 1 exams on a day the cost is
// (c-1) * SameDayPenalty, summed over all days and students.
type SameDayConstraint struct {
	// studentCourses[s] holds the gene indices of student s's courses
	studentCourses [][]int

	// slotDay[slot] is the day index of the slot
	slotDay  []int
	dayCount int
}

// NewSameDayConstraint creates a SameDayConstraint
func NewSameDayConstraint(studentCourses [][]int, slotDay []int, dayCount int) *SameDayConstraint {
	return &SameDayConstraint{
		studentCourses: studentCourses,
		slotDay:        slotDay,
		dayCount:       dayCount,
	}
}

func (c *SameDayConstraint) Name() string {
	return "SameDay"
}

func (c *SameDayConstraint) Penalty(genes []int) float64 {
	dayExams := make([]int, c.dayCount)
	penalty := 0.0

	for _, courses := range c.studentCourses {
		if len(courses) < 2 {
			continue
		}

		clear(dayExams)
		for _, course := range courses {
			dayExams[c.slotDay[genes[course]]]++
		}

		for _, count := range dayExams {
			if count > 1 {
				penalty += float64(count-1) * SameDayPenalty
			}
		}
	}

	return penalty
}
