package conflicts

import (
	"cmp"
	"slices"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// ScheduleMakeup proposes a makeup slot for each unschedulable record.
//
// Records are served largest first (ties keep their detection order) and
// each takes the earliest candidate slot not already taken. Once the window
// is used up the remaining records are marked no_slot_available. A slot is
// never proposed twice.
func ScheduleMakeup(records []model.UnschedulableRecord, window []model.TimeSlot) []model.MakeupProposal {
	proposals := []model.MakeupProposal{}
	if len(records) == 0 {
		return proposals
	}

	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b model.UnschedulableRecord) int {
		return cmp.Compare(b.StudentCount, a.StudentCount)
	})

	used := make(map[string]bool, len(window))

	for _, record := range ordered {
		proposal := model.MakeupProposal{
			CourseID:        record.CourseID,
			OriginalReasons: record.Reasons,
			StudentCount:    record.StudentCount,
			Status:          model.MakeupNoSlotAvailable,
		}

		for _, slot := range window {
			if used[slot.Key()] {
				continue
			}
			used[slot.Key()] = true
			proposal.Slot = &slot
			proposal.Status = model.MakeupProposed
			break
		}

		proposals = append(proposals, proposal)
	}

	return proposals
}
