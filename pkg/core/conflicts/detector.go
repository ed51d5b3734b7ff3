package conflicts

import (
	"fmt"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// Detect lists every exam that is not fully scheduled, with the reasons.
//
// An exam is reported when any of these hold: it was marked unschedulable
// upstream, its students outnumber the combined capacity of all rooms, some
// of its students were left unseated, or one of its rooms has no invigilator.
// Records follow the exam order.
func Detect(exams []*model.Exam, rooms []model.Room) []model.UnschedulableRecord {
	totalCapacity := 0
	for _, room := range rooms {
		totalCapacity += max(room.Capacity, 0)
	}

	records := []model.UnschedulableRecord{}

	for _, exam := range exams {
		reasons := Reasons(exam, totalCapacity)
		if len(reasons) == 0 {
			continue
		}

		records = append(records, model.UnschedulableRecord{
			CourseID:     exam.CourseID,
			SlotDate:     exam.Slot.Date,
			SlotTime:     exam.Slot.TimeRange(),
			Reasons:      reasons,
			StudentCount: exam.StudentCount(),
		})
	}

	return records
}

// Reasons returns the human-readable problems with a single exam, in a fixed
// order. An empty result means the exam is fully scheduled.
func Reasons(exam *model.Exam, totalCapacity int) []string {
	var reasons []string

	if exam.Status == model.StatusUnschedulable {
		reason := exam.Reason
		if reason == "" {
			reason = "unknown reason"
		}
		reasons = append(reasons, reason)
	}

	if students := exam.StudentCount(); students > totalCapacity {
		reasons = append(reasons, fmt.Sprintf("Total students (%d) exceed room capacity (%d)", students, totalCapacity))
	}

	if n := len(exam.UnassignedStudents); n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d students could not be assigned to rooms", n))
	}

	missing := 0
	for _, a := range exam.Assignments {
		if a.Invigilator == nil {
			missing++
		}
	}
	if missing > 0 {
		reasons = append(reasons, fmt.Sprintf("%d rooms without invigilators", missing))
	}

	return reasons
}
