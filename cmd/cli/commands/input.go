package commands

import (
	"fmt"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/services"
	"github.com/jakechorley/exam-scheduler/pkg/ingest"
)

// InputPaths locates the tables of one scheduling run. Teachers and Holidays
// are optional.
type InputPaths struct {
	Students string
	Courses  string
	Rooms    string
	Teachers string
	Holidays string
}

// LoadInput reads every table named in paths and resolves enrollments
func LoadInput(paths InputPaths) (services.ScheduleInput, error) {
	if paths.Students == "" || paths.Courses == "" {
		return services.ScheduleInput{}, fmt.Errorf("--students and --courses are required")
	}
	if paths.Rooms == "" {
		return services.ScheduleInput{}, fmt.Errorf("--rooms is required")
	}

	var tables ingest.Tables
	files := []struct {
		name  string
		path  string
		table **ingest.Table
	}{
		{"students", paths.Students, &tables.Students},
		{"courses", paths.Courses, &tables.Courses},
		{"rooms", paths.Rooms, &tables.Rooms},
		{"teachers", paths.Teachers, &tables.Teachers},
		{"holidays", paths.Holidays, &tables.Holidays},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		table, err := ingest.ReadFile(f.name, f.path)
		if err != nil {
			return services.ScheduleInput{}, err
		}
		*f.table = table
	}

	return ingest.BuildInput(tables)
}

func loadStudentsAndCourses(studentsPath, coursesPath string) ([]model.Student, []model.Course, error) {
	if studentsPath == "" || coursesPath == "" {
		return nil, nil, fmt.Errorf("--students and --courses are required")
	}

	studentsTable, err := ingest.ReadFile("students", studentsPath)
	if err != nil {
		return nil, nil, err
	}
	students, err := ingest.ReadStudents(studentsTable)
	if err != nil {
		return nil, nil, err
	}

	coursesTable, err := ingest.ReadFile("courses", coursesPath)
	if err != nil {
		return nil, nil, err
	}
	courses, err := ingest.ReadCourses(coursesTable)
	if err != nil {
		return nil, nil, err
	}

	return students, courses, nil
}
