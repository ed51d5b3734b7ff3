package invigilation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

var (
	morning   = model.TimeSlot{Date: "2024-05-01", StartTime: "09:00", EndTime: "12:00"}
	afternoon = model.TimeSlot{Date: "2024-05-01", StartTime: "14:00", EndTime: "17:00"}
)

func examInRooms(courseID string, slot model.TimeSlot, roomIDs ...string) *model.Exam {
	e := &model.Exam{CourseID: courseID, Slot: slot, Status: model.StatusScheduled}
	for _, id := range roomIDs {
		e.Assignments = append(e.Assignments, model.RoomAssignment{RoomID: id, Students: []string{"S"}})
	}
	return e
}

func TestAssign_FirstFitInRosterOrder(t *testing.T) {
	exams := []*model.Exam{
		examInRooms("C1", morning, "R1", "R2"),
		examInRooms("C2", afternoon, "R1"),
	}
	teachers := []model.Teacher{
		{ID: "T1", Availability: []model.Availability{
			{Date: "2024-05-01", Time: "09:00-12:00"},
			{Date: "2024-05-01", Time: "14:00-17:00"},
		}},
		{ID: "T2", Availability: []model.Availability{{Date: "2024-05-01", Time: "09:00-12:00"}}},
	}

	warnings := Assign(exams, teachers, Config{MaxRoomsPerTeacher: 2}, zap.NewNop())

	assert.Empty(t, warnings)

	r1 := exams[0].Assignments[0].Invigilator
	require.NotNil(t, r1)
	assert.Equal(t, "T1", r1.TeacherID)
	assert.Equal(t, 1, r1.LoadBalanceScore)
	assert.Equal(t, "R1", r1.RoomID)
	assert.Equal(t, morning, r1.Slot)

	r2 := exams[0].Assignments[1].Invigilator
	require.NotNil(t, r2)
	assert.Equal(t, "T1", r2.TeacherID)
	assert.Equal(t, 2, r2.LoadBalanceScore)

	// Counters are per slot, so T1 starts again at 1 in the afternoon
	r3 := exams[1].Assignments[0].Invigilator
	require.NotNil(t, r3)
	assert.Equal(t, "T1", r3.TeacherID)
	assert.Equal(t, 1, r3.LoadBalanceScore)
}

func TestAssign_LimitMovesToNextTeacher(t *testing.T) {
	exams := []*model.Exam{
		examInRooms("C1", morning, "R1", "R2"),
		examInRooms("C2", morning, "R3"),
	}
	teachers := DefaultRoster(2)

	warnings := Assign(exams, teachers, Config{MaxRoomsPerTeacher: 2, Workers: 2}, zap.NewNop())

	assert.Empty(t, warnings)
	assert.Equal(t, "T001", exams[0].Assignments[0].Invigilator.TeacherID)
	assert.Equal(t, "T001", exams[0].Assignments[1].Invigilator.TeacherID)
	assert.Equal(t, "T002", exams[1].Assignments[0].Invigilator.TeacherID)
	assert.Equal(t, 1, exams[1].Assignments[0].Invigilator.LoadBalanceScore)
}

func TestAssign_NoQualifyingTeacherWarnsOnce(t *testing.T) {
	exams := []*model.Exam{
		examInRooms("C1", morning, "R1", "R2"),
		examInRooms("C2", afternoon, "R3"),
	}
	teachers := []model.Teacher{
		{ID: "T1", Availability: []model.Availability{{Date: "2024-05-01", Time: "09:00-12:00"}}},
	}

	warnings := Assign(exams, teachers, Config{MaxRoomsPerTeacher: 1}, zap.NewNop())

	assert.Equal(t, []string{
		"No available invigilator for room R2 in slot 2024-05-01_09:00-12:00",
		"No available invigilator for room R3 in slot 2024-05-01_14:00-17:00",
	}, warnings)

	assert.NotNil(t, exams[0].Assignments[0].Invigilator)
	assert.Nil(t, exams[0].Assignments[1].Invigilator)
	assert.Nil(t, exams[1].Assignments[0].Invigilator)
}

func TestAssign_LimitNeverExceeded(t *testing.T) {
	var exams []*model.Exam
	for _, id := range []string{"C1", "C2", "C3", "C4", "C5"} {
		exams = append(exams, examInRooms(id, morning, "R1", "R2", "R3"))
	}

	Assign(exams, DefaultRoster(4), Config{MaxRoomsPerTeacher: 3}, zap.NewNop())

	counts := make(map[string]int)
	for _, e := range exams {
		for _, a := range e.Assignments {
			if a.Invigilator != nil {
				counts[a.Invigilator.TeacherID]++
			}
		}
	}
	for teacherID, count := range counts {
		assert.LessOrEqual(t, count, 3, "teacher %s", teacherID)
	}
}

func TestAssign_DefaultLimit(t *testing.T) {
	exams := []*model.Exam{examInRooms("C1", morning, "R1", "R2", "R3", "R4")}

	warnings := Assign(exams, DefaultRoster(1), Config{}, zap.NewNop())

	assert.Len(t, warnings, 1)
	assert.Nil(t, exams[0].Assignments[3].Invigilator)
}

func TestIsAvailable(t *testing.T) {
	assert.True(t, IsAvailable(model.Teacher{ID: "T1"}, morning))

	teacher := model.Teacher{ID: "T1", Availability: []model.Availability{{Date: "2024-05-01", Time: "14:00-17:00"}}}
	assert.False(t, IsAvailable(teacher, morning))
	assert.True(t, IsAvailable(teacher, afternoon))
	assert.False(t, IsAvailable(teacher, model.TimeSlot{Date: "2024-05-02", StartTime: "14:00", EndTime: "17:00"}))
}

func TestDefaultRoster(t *testing.T) {
	roster := DefaultRoster(10)

	require.Len(t, roster, 10)
	assert.Equal(t, "T001", roster[0].ID)
	assert.Equal(t, "T010", roster[9].ID)
	assert.Empty(t, roster[0].Availability)
}
