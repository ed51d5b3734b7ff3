package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// Sheet names written by WriteWorkbook, in order
const (
	SheetTimetable     = "Timetable"
	SheetRooms         = "Rooms"
	SheetSeatMaps      = "SeatMaps"
	SheetInvigilators  = "Invigilators"
	SheetUnschedulable = "Unschedulable"
	SheetMakeup        = "Makeup"
	SheetWarnings      = "Warnings"
)

// WriteWorkbook renders the timetable as an xlsx workbook
func WriteWorkbook(tt *model.Timetable, w io.Writer) error {
	f, err := BuildWorkbook(tt)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook builds the workbook in memory
func BuildWorkbook(tt *model.Timetable) (*excelize.File, error) {
	f := excelize.NewFile()

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetTimetable, timetableRows(tt)},
		{SheetRooms, roomRows(tt)},
		{SheetSeatMaps, seatMapRows(tt)},
		{SheetInvigilators, invigilatorRows(tt)},
		{SheetUnschedulable, unschedulableRows(tt)},
		{SheetMakeup, makeupRows(tt)},
		{SheetWarnings, warningRows(tt)},
	}

	// NewFile starts with a default sheet, which becomes the first one
	if err := f.SetSheetName(f.GetSheetName(0), sheets[0].name); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}

	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

func timetableRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Course ID", "Code", "Name", "Date", "Time", "Status", "Students", "Rooms", "Unassigned", "Reason"}}
	for _, e := range tt.Exams {
		roomIDs := make([]string, len(e.Assignments))
		for i, a := range e.Assignments {
			roomIDs[i] = a.RoomID
		}
		rows = append(rows, []any{
			e.CourseID, e.CourseCode, e.CourseName,
			e.Slot.Date, e.Slot.TimeRange(), string(e.Status),
			e.StudentCount(), strings.Join(roomIDs, ", "),
			len(e.UnassignedStudents), e.Reason,
		})
	}
	return rows
}

// roomRows lists every room assignment with the seats it uses
func roomRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Room ID", "Course ID", "Date", "Time", "Capacity Used"}}
	for _, e := range tt.Exams {
		for _, a := range e.Assignments {
			rows = append(rows, []any{a.RoomID, e.CourseID, e.Slot.Date, e.Slot.TimeRange(), len(a.Students)})
		}
	}
	return rows
}

// seatKey identifies one room within one slot
type seatKey struct {
	slot string
	room string
}

// seatMapRows merges the seat maps of every exam sharing a room in a slot.
// Rooms appear in first-seen order and seats keep their per-exam order.
func seatMapRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Date", "Time", "Room", "Row", "Column", "Student ID", "Course ID"}}

	type seat struct {
		model.SeatAssignment
		courseID string
	}
	var order []seatKey
	merged := make(map[seatKey][]seat)
	slots := make(map[string]model.TimeSlot)

	for _, e := range tt.Exams {
		for _, a := range e.Assignments {
			key := seatKey{slot: e.Slot.Key(), room: a.RoomID}
			if _, ok := merged[key]; !ok {
				order = append(order, key)
				slots[key.slot] = e.Slot
			}
			for _, s := range a.Seats {
				merged[key] = append(merged[key], seat{SeatAssignment: s, courseID: e.CourseID})
			}
		}
	}

	for _, key := range order {
		slot := slots[key.slot]
		for _, s := range merged[key] {
			rows = append(rows, []any{slot.Date, slot.TimeRange(), key.room, s.Row, s.Column, s.StudentID, s.courseID})
		}
	}
	return rows
}

func invigilatorRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Date", "Time", "Room", "Course ID", "Teacher ID", "Load"}}
	for _, e := range tt.Exams {
		for _, a := range e.Assignments {
			teacherID, load := "UNASSIGNED", any("")
			if a.Invigilator != nil {
				teacherID, load = a.Invigilator.TeacherID, a.Invigilator.LoadBalanceScore
			}
			rows = append(rows, []any{e.Slot.Date, e.Slot.TimeRange(), a.RoomID, e.CourseID, teacherID, load})
		}
	}
	return rows
}

func unschedulableRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Course ID", "Date", "Time", "Students", "Reasons"}}
	for _, u := range tt.Unschedulable {
		rows = append(rows, []any{u.CourseID, u.SlotDate, u.SlotTime, u.StudentCount, strings.Join(u.Reasons, "; ")})
	}
	return rows
}

func makeupRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Course ID", "Makeup Date", "Makeup Time", "Students", "Status", "Original Reasons"}}
	for _, m := range tt.MakeupSchedule {
		date, slotTime := "", ""
		if m.Slot != nil {
			date, slotTime = m.Slot.Date, m.Slot.TimeRange()
		}
		rows = append(rows, []any{m.CourseID, date, slotTime, m.StudentCount, string(m.Status), strings.Join(m.OriginalReasons, "; ")})
	}
	return rows
}

func warningRows(tt *model.Timetable) [][]any {
	rows := [][]any{{"Warning"}}
	for _, w := range tt.Warnings {
		rows = append(rows, []any{w})
	}
	return rows
}
