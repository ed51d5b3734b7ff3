package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jakechorley/exam-scheduler/pkg/core/calendar"
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/rooms"
)

var courseCodeSeparators = regexp.MustCompile(`[,;|/\s]+`)

// ReadStudents maps a students table: student_id, name, enrolled_courses,
// and optionally batch_type, year and section
func ReadStudents(t *Table) ([]model.Student, error) {
	if err := t.Require("student_id", "name", "enrolled_courses"); err != nil {
		return nil, err
	}

	students := make([]model.Student, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Get(row, "student_id")
		if id == "" {
			return nil, rowError(t, i, "student_id")
		}
		students = append(students, model.Student{
			ID:              id,
			Name:            t.Get(row, "name"),
			BatchType:       t.Get(row, "batch_type"),
			Year:            t.Get(row, "year"),
			Section:         t.Get(row, "section"),
			EnrolledCourses: t.Get(row, "enrolled_courses"),
		})
	}
	return students, nil
}

// ReadCourses maps a courses table: course_id, code, name, and optionally
// semester, department, exam_type and priority_flag
func ReadCourses(t *Table) ([]model.Course, error) {
	if err := t.Require("course_id", "code", "name"); err != nil {
		return nil, err
	}

	courses := make([]model.Course, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Get(row, "course_id")
		if id == "" {
			return nil, rowError(t, i, "course_id")
		}
		courses = append(courses, model.Course{
			ID:           id,
			Code:         t.Get(row, "code"),
			Name:         t.Get(row, "name"),
			Semester:     t.Get(row, "semester"),
			Department:   t.Get(row, "department"),
			ExamType:     t.Get(row, "exam_type"),
			PriorityFlag: parseFlag(t.Get(row, "priority_flag")),
		})
	}
	return courses, nil
}

// ReadRooms maps a rooms table: room_id, name, capacity, and optionally
// num_columns (blank means rooms.DefaultColumns)
func ReadRooms(t *Table) ([]model.Room, error) {
	if err := t.Require("room_id", "name", "capacity"); err != nil {
		return nil, err
	}

	out := make([]model.Room, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Get(row, "room_id")
		if id == "" {
			return nil, rowError(t, i, "room_id")
		}

		capacity, err := parseCount(t.Get(row, "capacity"))
		if err != nil || capacity < 0 {
			return nil, model.NewValidationError(t.Name, "row %d: capacity %q must be a non-negative integer", i+2, t.Get(row, "capacity"))
		}

		columns := rooms.DefaultColumns
		if raw := t.Get(row, "num_columns"); raw != "" {
			columns, err = parseCount(raw)
			if err != nil || columns < 1 {
				return nil, model.NewValidationError(t.Name, "row %d: num_columns %q must be a positive integer", i+2, raw)
			}
		}

		out = append(out, model.Room{
			ID:       id,
			Name:     t.Get(row, "name"),
			Capacity: capacity,
			Columns:  columns,
		})
	}
	return out, nil
}

// ReadTeachers maps a teachers table: teacher_id, name, and optionally
// availability written as "2024-05-01 09:00-12:00; 2024-05-02 09:00-12:00".
// A blank availability means always available.
func ReadTeachers(t *Table) ([]model.Teacher, error) {
	if err := t.Require("teacher_id", "name"); err != nil {
		return nil, err
	}

	teachers := make([]model.Teacher, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := t.Get(row, "teacher_id")
		if id == "" {
			return nil, rowError(t, i, "teacher_id")
		}

		availability, err := parseAvailability(t.Get(row, "availability"))
		if err != nil {
			return nil, model.NewValidationError(t.Name, "row %d: %v", i+2, err)
		}

		teachers = append(teachers, model.Teacher{
			ID:           id,
			Name:         t.Get(row, "name"),
			Availability: availability,
		})
	}
	return teachers, nil
}

// ReadHolidays maps a holidays table with a date column. Dates may be written
// in any supported layout; rows that match none are skipped.
func ReadHolidays(t *Table) ([]string, error) {
	if err := t.Require("date"); err != nil {
		return nil, err
	}

	holidays := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if date, ok := calendar.ParseHolidayDate(t.Get(row, "date")); ok {
			holidays = append(holidays, date)
		}
	}
	return holidays, nil
}

// ResolveEnrollments splits each student's enrolled course codes and resolves
// them against course codes. Codes matching no course are returned, once
// each in first-seen order, and otherwise ignored. Duplicate pairs collapse.
func ResolveEnrollments(students []model.Student, courses []model.Course) ([]model.Enrollment, []string) {
	byCode := make(map[string]string, len(courses))
	for _, c := range courses {
		if _, dup := byCode[c.Code]; !dup {
			byCode[c.Code] = c.ID
		}
	}

	enrollments := []model.Enrollment{}
	seen := make(map[model.Enrollment]bool)
	unknownSeen := make(map[string]bool)
	var unknown []string

	for _, s := range students {
		for _, code := range SplitCourseCodes(s.EnrolledCourses) {
			courseID, ok := byCode[code]
			if !ok {
				if !unknownSeen[code] {
					unknownSeen[code] = true
					unknown = append(unknown, code)
				}
				continue
			}

			e := model.Enrollment{StudentID: s.ID, CourseID: courseID}
			if seen[e] {
				continue
			}
			seen[e] = true
			enrollments = append(enrollments, e)
		}
	}

	return enrollments, unknown
}

// SplitCourseCodes splits on commas, semicolons, pipes, slashes and whitespace
func SplitCourseCodes(raw string) []string {
	var codes []string
	for _, code := range courseCodeSeparators.Split(raw, -1) {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func parseAvailability(raw string) ([]model.Availability, error) {
	var availability []model.Availability
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Fields(entry)
		if len(fields) != 2 {
			return nil, fmt.Errorf("availability entry %q must be \"YYYY-MM-DD HH:MM-HH:MM\"", entry)
		}
		date, ok := calendar.ParseHolidayDate(fields[0])
		if !ok {
			return nil, fmt.Errorf("availability entry %q has an invalid date", entry)
		}
		availability = append(availability, model.Availability{Date: date, Time: fields[1]})
	}
	return availability, nil
}

// parseCount accepts integers written as floats by spreadsheet exports, e.g. "30.0"
func parseCount(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int(f), nil
}

func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func rowError(t *Table, i int, column string) error {
	// Row numbers count the header as row 1
	return model.NewValidationError(t.Name, "row %d: %s is empty", i+2, column)
}
