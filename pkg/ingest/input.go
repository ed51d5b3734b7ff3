package ingest

import (
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/services"
)

// Tables are the parsed tables of one scheduling run. Teachers and Holidays
// may be nil.
type Tables struct {
	Students *Table
	Courses  *Table
	Rooms    *Table
	Teachers *Table
	Holidays *Table
}

// BuildInput maps the tables to pipeline input and resolves enrollments
func BuildInput(t Tables) (services.ScheduleInput, error) {
	var input services.ScheduleInput

	required := []struct {
		name  string
		table *Table
	}{{"students", t.Students}, {"courses", t.Courses}, {"rooms", t.Rooms}}
	for _, r := range required {
		if r.table == nil {
			return input, model.NewValidationError(r.name, "table is required")
		}
	}

	var err error
	if input.Students, err = ReadStudents(t.Students); err != nil {
		return input, err
	}
	if input.Courses, err = ReadCourses(t.Courses); err != nil {
		return input, err
	}
	input.Enrollments, input.UnknownCourseCodes = ResolveEnrollments(input.Students, input.Courses)

	if input.Rooms, err = ReadRooms(t.Rooms); err != nil {
		return input, err
	}

	if t.Teachers != nil {
		if input.Teachers, err = ReadTeachers(t.Teachers); err != nil {
			return input, err
		}
	}
	if t.Holidays != nil {
		if input.Holidays, err = ReadHolidays(t.Holidays); err != nil {
			return input, err
		}
	}

	return input, nil
}
