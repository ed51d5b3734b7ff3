package invigilation

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/rooms"
)

// DefaultMaxRoomsPerTeacher is the per-slot room limit used when none is configured
const DefaultMaxRoomsPerTeacher = 3

// Config controls invigilator assignment
type Config struct {
	// MaxRoomsPerTeacher caps how many rooms one teacher covers within a slot
	MaxRoomsPerTeacher int

	// Workers bounds how many slot groups are processed at once
	Workers int
}

// Assign gives every room assignment an invigilator, first-fit in roster
// order. A teacher qualifies for a slot when their availability is empty or
// lists the slot, and they cover fewer than MaxRoomsPerTeacher rooms in it.
//
// Rooms left without a qualifying teacher stay unstaffed. The returned
// warnings describe each one, in slot-group order, once for the whole run.
func Assign(exams []*model.Exam, teachers []model.Teacher, cfg Config, logger *zap.Logger) []string {
	limit := cfg.MaxRoomsPerTeacher
	if limit < 1 {
		limit = DefaultMaxRoomsPerTeacher
	}

	groups := rooms.GroupBySlot(exams)
	groupWarnings := make([][]string, len(groups))

	var g errgroup.Group
	g.SetLimit(max(cfg.Workers, 1))

	for i, group := range groups {
		g.Go(func() error {
			groupWarnings[i] = assignGroup(group, teachers, limit, logger)
			return nil
		})
	}

	_ = g.Wait()

	warnings := []string{}
	for _, w := range groupWarnings {
		warnings = append(warnings, w...)
	}

	logger.Debug("Assigned invigilators",
		zap.Int("slot_groups", len(groups)),
		zap.Int("teachers", len(teachers)),
		zap.Int("warnings", len(warnings)))

	return warnings
}

// assignGroup staffs the rooms of one slot. The counters are local to the
// group since a teacher's limit applies per slot.
func assignGroup(group *rooms.SlotGroup, teachers []model.Teacher, limit int, logger *zap.Logger) []string {
	slot := group.Slot
	counts := make(map[string]int, len(teachers))
	var warnings []string

	for _, exam := range group.Exams {
		for i := range exam.Assignments {
			assignment := &exam.Assignments[i]

			teacher, ok := firstAvailable(teachers, slot, counts, limit)
			if !ok {
				assignment.Invigilator = nil
				warnings = append(warnings, fmt.Sprintf("No available invigilator for room %s in slot %s", assignment.RoomID, slot.Key()))
				logger.Warn("No available invigilator",
					zap.String("room_id", assignment.RoomID),
					zap.String("course_id", exam.CourseID),
					zap.String("slot", slot.Key()))
				continue
			}

			counts[teacher.ID]++
			assignment.Invigilator = &model.InvigilatorAssignment{
				TeacherID:        teacher.ID,
				RoomID:           assignment.RoomID,
				Slot:             slot,
				LoadBalanceScore: counts[teacher.ID],
			}
		}
	}

	return warnings
}

func firstAvailable(teachers []model.Teacher, slot model.TimeSlot, counts map[string]int, limit int) (model.Teacher, bool) {
	for _, teacher := range teachers {
		if counts[teacher.ID] >= limit {
			continue
		}
		if IsAvailable(teacher, slot) {
			return teacher, true
		}
	}
	return model.Teacher{}, false
}

// IsAvailable reports whether the teacher can sit the slot. An empty
// availability list means always available.
func IsAvailable(teacher model.Teacher, slot model.TimeSlot) bool {
	if len(teacher.Availability) == 0 {
		return true
	}
	timeRange := slot.TimeRange()
	for _, a := range teacher.Availability {
		if a.Date == slot.Date && a.Time == timeRange {
			return true
		}
	}
	return false
}

// DefaultRoster builds n always-available teachers T001, T002, ... used when
// no teacher table is supplied
func DefaultRoster(n int) []model.Teacher {
	teachers := make([]model.Teacher, n)
	for i := range teachers {
		teachers[i] = model.Teacher{
			ID:   fmt.Sprintf("T%03d", i+1),
			Name: fmt.Sprintf("Teacher %d", i+1),
		}
	}
	return teachers
}
