package rooms

import (
	"cmp"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// Outcome summarises a room allocation pass
type Outcome struct {
	Groups []*SlotGroup

	// OverCapacity holds the keys of slot groups whose demand exceeded the
	// combined capacity of every room
	OverCapacity []string

	TotalCapacity int
}

// ledger tracks the remaining capacity of every room within one slot group.
// Rooms are held in allocation order: capacity descending, ties in input order.
type ledger struct {
	rooms     []model.Room
	remaining []int
}

func newLedger(rooms []model.Room) *ledger {
	ordered := slices.Clone(rooms)
	slices.SortStableFunc(ordered, func(a, b model.Room) int {
		return cmp.Compare(b.Capacity, a.Capacity)
	})

	remaining := make([]int, len(ordered))
	for i, room := range ordered {
		remaining[i] = max(room.Capacity, 0)
	}

	return &ledger{rooms: ordered, remaining: remaining}
}

// place fills rooms in ledger order until students run out or every room is
// full. It returns the room assignments and any students left over.
func (l *ledger) place(students []string) ([]model.RoomAssignment, []string) {
	assignments := []model.RoomAssignment{}
	rest := students

	for i, room := range l.rooms {
		if len(rest) == 0 {
			break
		}
		if l.remaining[i] == 0 {
			continue
		}

		take := min(l.remaining[i], len(rest))
		seated := slices.Clone(rest[:take])
		rest = rest[take:]
		l.remaining[i] -= take

		assignments = append(assignments, model.RoomAssignment{
			RoomID:   room.ID,
			Students: seated,
			Seats:    AssignSeats(seated, room.Columns),
		})
	}

	return assignments, rest
}

// Allocate assigns rooms and seats to every exam, grouped by slot.
//
// A group whose demand exceeds the combined capacity of all rooms is marked
// unschedulable as a whole. Otherwise exams are processed in input order
// against one capacity ledger shared by the whole group, so a room's seats
// are never handed out twice within a slot. Exams that cannot be fully seated
// end partial with their leftover students recorded.
//
// Groups share no state and are processed on up to workers goroutines.
func Allocate(exams []*model.Exam, rooms []model.Room, workers int, logger *zap.Logger) *Outcome {
	totalCapacity := 0
	for _, room := range rooms {
		totalCapacity += max(room.Capacity, 0)
	}

	groups := GroupBySlot(exams)
	overCapacity := make([]bool, len(groups))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for i, group := range groups {
		g.Go(func() error {
			overCapacity[i] = !allocateGroup(group, rooms, totalCapacity, logger)
			return nil
		})
	}

	// Group allocation never returns errors
	_ = g.Wait()

	outcome := &Outcome{
		Groups:        groups,
		OverCapacity:  []string{},
		TotalCapacity: totalCapacity,
	}
	for i, over := range overCapacity {
		if over {
			outcome.OverCapacity = append(outcome.OverCapacity, groups[i].Slot.Key())
		}
	}

	return outcome
}

// allocateGroup returns false when the group was rejected for capacity
func allocateGroup(group *SlotGroup, rooms []model.Room, totalCapacity int, logger *zap.Logger) bool {
	demand := group.Demand()

	if demand > totalCapacity {
		logger.Warn("Slot demand exceeds total room capacity",
			zap.String("slot", group.Slot.Key()),
			zap.Int("demand", demand),
			zap.Int("capacity", totalCapacity),
			zap.Int("exams", len(group.Exams)))

		for _, exam := range group.Exams {
			exam.Status = model.StatusUnschedulable
			exam.Reason = model.ReasonInsufficientCapacity
			exam.Assignments = []model.RoomAssignment{}
			exam.UnassignedStudents = nil
		}
		return false
	}

	l := newLedger(rooms)

	for _, exam := range group.Exams {
		assignments, rest := l.place(exam.Students)
		exam.Assignments = assignments
		exam.Reason = ""

		if len(rest) == 0 {
			exam.Status = model.StatusScheduled
			exam.UnassignedStudents = nil
			continue
		}

		exam.Status = model.StatusPartial
		exam.UnassignedStudents = slices.Clone(rest)

		logger.Warn("Exam only partially seated",
			zap.String("course_id", exam.CourseID),
			zap.String("slot", group.Slot.Key()),
			zap.Int("unassigned", len(rest)))
	}

	logger.Debug("Allocated rooms for slot",
		zap.String("slot", group.Slot.Key()),
		zap.Int("exams", len(group.Exams)),
		zap.Int("demand", demand),
		zap.Int("capacity", totalCapacity))

	return true
}
