package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// BuildRecords flattens a timetable into database records. Exams, room
// assignments and makeups get fresh UUIDs; the run keeps the timetable's
// run ID, or gets a new one when it is empty.
func BuildRecords(tt *model.Timetable, createdAt time.Time) *Records {
	runID := tt.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	records := &Records{
		Run: Run{
			ID:                 runID,
			CreatedAt:          createdAt.UTC().Format(time.RFC3339),
			Seed:               tt.Seed,
			Score:              tt.Score,
			Generations:        tt.Generations,
			ExamCount:          len(tt.Exams),
			ScheduledCount:     tt.CountByStatus(model.StatusScheduled),
			PartialCount:       tt.CountByStatus(model.StatusPartial),
			UnschedulableCount: tt.CountByStatus(model.StatusUnschedulable),
			Warnings:           nonNil(tt.Warnings),
		},
	}

	for _, exam := range tt.Exams {
		examID := uuid.NewString()
		records.Exams = append(records.Exams, ExamRecord{
			ID:                 examID,
			RunID:              runID,
			CourseID:           exam.CourseID,
			CourseCode:         exam.CourseCode,
			CourseName:         exam.CourseName,
			SlotDate:           exam.Slot.Date,
			SlotTime:           exam.Slot.TimeRange(),
			Status:             string(exam.Status),
			Reason:             exam.Reason,
			StudentCount:       exam.StudentCount(),
			UnassignedStudents: nonNil(exam.UnassignedStudents),
		})

		for _, a := range exam.Assignments {
			assignment := RoomAssignmentRecord{
				ID:           uuid.NewString(),
				ExamID:       examID,
				RoomID:       a.RoomID,
				StudentCount: len(a.Students),
			}
			if a.Invigilator != nil {
				assignment.InvigilatorID = a.Invigilator.TeacherID
				assignment.LoadBalanceScore = a.Invigilator.LoadBalanceScore
			}
			records.Assignments = append(records.Assignments, assignment)

			for _, seat := range a.Seats {
				records.Seats = append(records.Seats, SeatRecord{
					AssignmentID: assignment.ID,
					StudentID:    seat.StudentID,
					Row:          seat.Row,
					Column:       seat.Column,
				})
			}
		}
	}

	for _, p := range tt.MakeupSchedule {
		makeup := MakeupRecord{
			ID:           uuid.NewString(),
			RunID:        runID,
			CourseID:     p.CourseID,
			Status:       string(p.Status),
			StudentCount: p.StudentCount,
			Reasons:      nonNil(p.OriginalReasons),
		}
		if p.Slot != nil {
			makeup.MakeupDate = p.Slot.Date
			makeup.MakeupTime = p.Slot.TimeRange()
		}
		records.Makeups = append(records.Makeups, makeup)
	}

	return records
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
