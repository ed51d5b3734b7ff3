package rooms

import "github.com/jakechorley/exam-scheduler/pkg/core/model"

// SlotGroup is the set of exams sitting concurrently in one slot
type SlotGroup struct {
	Slot  model.TimeSlot
	Exams []*model.Exam
}

// Demand returns the total number of students sitting in the group
func (g *SlotGroup) Demand() int {
	demand := 0
	for _, exam := range g.Exams {
		demand += exam.StudentCount()
	}
	return demand
}

// GroupBySlot groups exams by slot key. Groups are ordered by first
// appearance and exams keep their input order within a group.
func GroupBySlot(exams []*model.Exam) []*SlotGroup {
	index := make(map[string]int)
	var groups []*SlotGroup

	for _, exam := range exams {
		key := exam.Slot.Key()
		idx, ok := index[key]
		if !ok {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, &SlotGroup{Slot: exam.Slot})
		}
		groups[idx].Exams = append(groups[idx].Exams, exam)
	}

	return groups
}
