package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

func sampleTimetable() *model.Timetable {
	slot := model.TimeSlot{Date: "2024-05-01", StartTime: "09:00", EndTime: "12:00"}
	makeupSlot := model.TimeSlot{Date: "2024-05-03", StartTime: "09:00", EndTime: "12:00"}

	return &model.Timetable{
		RunID:       "2f1d7a8e-3c2b-4a5e-9f10-0d1c2b3a4f5e",
		Seed:        42,
		Score:       1000,
		Generations: 100,
		Exams: []*model.Exam{
			{
				CourseID:   "C001",
				CourseCode: "MATH101",
				Slot:       slot,
				Status:     model.StatusScheduled,
				Students:   []string{"S1", "S2"},
				Assignments: []model.RoomAssignment{{
					RoomID:   "R1",
					Students: []string{"S1", "S2"},
					Seats: []model.SeatAssignment{
						{StudentID: "S1", Row: 1, Column: 1},
						{StudentID: "S2", Row: 2, Column: 1},
					},
					Invigilator: &model.InvigilatorAssignment{TeacherID: "T001", RoomID: "R1", Slot: slot, LoadBalanceScore: 1},
				}},
			},
			{
				CourseID:    "C002",
				Slot:        slot,
				Status:      model.StatusUnschedulable,
				Reason:      model.ReasonInsufficientCapacity,
				Students:    []string{"S3"},
				Assignments: []model.RoomAssignment{},
			},
		},
		Warnings: []string{"No available invigilator for room R2 in slot 2024-05-01_09:00-12:00"},
		MakeupSchedule: []model.MakeupProposal{
			{CourseID: "C002", Slot: &makeupSlot, StudentCount: 1, Status: model.MakeupProposed, OriginalReasons: []string{"insufficient room capacity"}},
			{CourseID: "C003", StudentCount: 1, Status: model.MakeupNoSlotAvailable},
		},
	}
}

func TestBuildRecords(t *testing.T) {
	createdAt := time.Date(2024, 4, 20, 10, 30, 0, 0, time.UTC)

	records := BuildRecords(sampleTimetable(), createdAt)

	assert.Equal(t, Run{
		ID:                 "2f1d7a8e-3c2b-4a5e-9f10-0d1c2b3a4f5e",
		CreatedAt:          "2024-04-20T10:30:00Z",
		Seed:               42,
		Score:              1000,
		Generations:        100,
		ExamCount:          2,
		ScheduledCount:     1,
		UnschedulableCount: 1,
		Warnings:           []string{"No available invigilator for room R2 in slot 2024-05-01_09:00-12:00"},
	}, records.Run)

	require.Len(t, records.Exams, 2)
	exam := records.Exams[0]
	assert.Equal(t, records.Run.ID, exam.RunID)
	assert.Equal(t, "09:00-12:00", exam.SlotTime)
	assert.Equal(t, "scheduled", exam.Status)
	assert.Equal(t, 2, exam.StudentCount)
	assert.NotNil(t, exam.UnassignedStudents)
	_, err := uuid.Parse(exam.ID)
	assert.NoError(t, err)

	assert.Equal(t, "insufficient room capacity", records.Exams[1].Reason)

	require.Len(t, records.Assignments, 1)
	assignment := records.Assignments[0]
	assert.Equal(t, exam.ID, assignment.ExamID)
	assert.Equal(t, "T001", assignment.InvigilatorID)
	assert.Equal(t, 1, assignment.LoadBalanceScore)
	assert.Equal(t, 2, assignment.StudentCount)

	require.Len(t, records.Seats, 2)
	for _, seat := range records.Seats {
		assert.Equal(t, assignment.ID, seat.AssignmentID)
	}

	require.Len(t, records.Makeups, 2)
	assert.Equal(t, "2024-05-03", records.Makeups[0].MakeupDate)
	assert.Equal(t, "09:00-12:00", records.Makeups[0].MakeupTime)
	assert.Equal(t, "proposed", records.Makeups[0].Status)
	assert.Empty(t, records.Makeups[1].MakeupDate)
	assert.Equal(t, "no_slot_available", records.Makeups[1].Status)
	assert.NotNil(t, records.Makeups[1].Reasons)
}

func TestBuildRecords_GeneratesRunID(t *testing.T) {
	tt := sampleTimetable()
	tt.RunID = ""

	records := BuildRecords(tt, time.Now())

	_, err := uuid.Parse(records.Run.ID)
	assert.NoError(t, err)
	for _, e := range records.Exams {
		assert.Equal(t, records.Run.ID, e.RunID)
	}
}

func TestBuildRecords_IDsAreUnique(t *testing.T) {
	records := BuildRecords(sampleTimetable(), time.Now())

	seen := make(map[string]bool)
	for _, e := range records.Exams {
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
	for _, a := range records.Assignments {
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
	for _, m := range records.Makeups {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}
