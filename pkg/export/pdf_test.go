package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

func uncompressedPDF(t *testing.T, tt *model.Timetable) (string, int) {
	t.Helper()
	pdf := BuildPDF(tt)
	pdf.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.String(), pdf.PageCount()
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(sampleTimetable(), &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestBuildPDF_SummaryAndSeatPlans(t *testing.T) {
	out, pages := uncompressedPDF(t, sampleTimetable())

	// One summary page plus one seat plan page for the only seated slot
	assert.Equal(t, 2, pages)
	assert.Contains(t, out, "MATH101, PHYS101")
	assert.Contains(t, out, "Seat plans: 2024-05-01 09:00-12:00")
	assert.Contains(t, out, "Invigilator T001")
	assert.Contains(t, out, "Invigilator UNASSIGNED")
	assert.Contains(t, out, "(S3)")
	// The unschedulable exam has no seats and is left out
	assert.NotContains(t, out, "C003")
}

func TestBuildPDF_EmptyTimetable(t *testing.T) {
	_, pages := uncompressedPDF(t, &model.Timetable{})

	assert.Equal(t, 1, pages)
}

func TestGroupSittings_Chronological(t *testing.T) {
	late := model.TimeSlot{Date: "2024-05-02", StartTime: "09:00", EndTime: "12:00"}
	early := model.TimeSlot{Date: "2024-05-01", StartTime: "14:00", EndTime: "17:00"}

	sittings := groupSittings([]*model.Exam{
		{CourseID: "C001", Slot: late},
		{CourseID: "C002", Slot: early},
		{CourseID: "C003", Slot: late},
	})

	require.Len(t, sittings, 2)
	assert.Equal(t, early, sittings[0].slot)
	require.Len(t, sittings[1].exams, 2)
	assert.Equal(t, "C001", sittings[1].exams[0].CourseID)
	assert.Equal(t, "C003", sittings[1].exams[1].CourseID)
}

func TestBuildPDF_BatchAndSectionColumns(t *testing.T) {
	slot := model.TimeSlot{Date: "2024-05-01", StartTime: "09:00", EndTime: "12:00"}
	tt := &model.Timetable{
		Exams: []*model.Exam{{
			CourseID: "C001", CourseCode: "MATH101", CourseName: "Mathematics",
			Slot: slot, Status: model.StatusScheduled,
			Students: []string{"20210001", "EV-202150002", "20210003"},
			Assignments: []model.RoomAssignment{{
				RoomID:   "R1",
				Students: []string{"20210001", "EV-202150002", "20210003"},
				Seats: []model.SeatAssignment{
					{StudentID: "20210001", Row: 1, Column: 1},
					{StudentID: "EV-202150002", Row: 2, Column: 1},
					{StudentID: "20210003", Row: 1, Column: 2},
				},
			}},
		}},
		Students: []model.Student{
			{ID: "20210001", BatchType: "Regular", Section: "B"},
			{ID: "EV-202150002", BatchType: "Evening", Section: "A"},
			{ID: "20210003", Section: "B"},
		},
	}

	out, _ := uncompressedPDF(t, tt)

	assert.Contains(t, out, "(Batch)")
	assert.Contains(t, out, "(Section)")
	assert.Contains(t, out, "(2021, 20215)")
	assert.Contains(t, out, "(A, B)")
}

func TestStudentBatch(t *testing.T) {
	assert.Equal(t, "2021", studentBatch(model.Student{ID: "20210001"}))
	assert.Equal(t, "20215", studentBatch(model.Student{ID: "202150002", BatchType: "EVENING"}))
	assert.Equal(t, "12", studentBatch(model.Student{ID: "S12"}))
	assert.Equal(t, "", studentBatch(model.Student{ID: "ABC"}))
}
