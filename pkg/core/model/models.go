package model

import (
	"encoding/json"
	"fmt"
)

type ExamStatus string

const (
	StatusScheduled     ExamStatus = "scheduled"
	StatusPartial       ExamStatus = "partial"
	StatusUnschedulable ExamStatus = "unschedulable"
)

type MakeupStatus string

const (
	MakeupProposed        MakeupStatus = "proposed"
	MakeupNoSlotAvailable MakeupStatus = "no_slot_available"
)

// Course is a unit that sits exactly one exam
type Course struct {
	ID           string
	Code         string
	Name         string
	Semester     string
	Department   string
	ExamType     string
	PriorityFlag bool
}

// Student represents an enrolled student. Batch, year and section are only
// carried for reporting.
type Student struct {
	ID              string
	Name            string
	BatchType       string
	Year            string
	Section         string
	EnrolledCourses string // Raw delimiter-joined course codes
}

// Enrollment links a student to a course
type Enrollment struct {
	StudentID string
	CourseID  string
}

// Room is a physical exam room
type Room struct {
	ID       string
	Name     string
	Capacity int
	Columns  int
}

// Availability is a (date, time range) pair a teacher can invigilate
type Availability struct {
	Date string
	Time string // "09:00-12:00"
}

// Teacher is a potential invigilator. An empty Availability list means always available.
type Teacher struct {
	ID           string
	Name         string
	Availability []Availability
}

// TimeSlot is a concrete exam sitting
type TimeSlot struct {
	Date      string
	StartTime string
	EndTime   string
}

// TimeRange returns the slot's time range as "HH:MM-HH:MM"
func (s TimeSlot) TimeRange() string {
	return s.StartTime + "-" + s.EndTime
}

// Key identifies the slot by date and time range
func (s TimeSlot) Key() string {
	return s.Date + "_" + s.TimeRange()
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s", s.Date, s.TimeRange())
}

// SlotTemplate is a daily exam sitting, repeated on every exam day
type SlotTemplate struct {
	StartTime string
	EndTime   string
}

// SeatAssignment is a 1-based seat position within a room
type SeatAssignment struct {
	StudentID string `json:"student_id"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
}

// InvigilatorAssignment records which teacher covers a room in a slot
type InvigilatorAssignment struct {
	TeacherID        string
	RoomID           string
	Slot             TimeSlot
	LoadBalanceScore int
}

// RoomAssignment is the subset of an exam's students sitting in one room
type RoomAssignment struct {
	RoomID      string
	Students    []string
	Seats       []SeatAssignment
	Invigilator *InvigilatorAssignment
}

// Exam is the scheduled sitting for a single course
type Exam struct {
	CourseID   string
	CourseCode string
	CourseName string
	Slot       TimeSlot
	Status     ExamStatus

	// Students enrolled in the course, in enrollment order
	Students []string

	Assignments        []RoomAssignment
	UnassignedStudents []string
	Reason             string
}

// StudentCount returns the number of students sitting the exam
func (e *Exam) StudentCount() int {
	return len(e.Students)
}

type roomAssignmentJSON struct {
	RoomID           string           `json:"room_id"`
	Students         []string         `json:"students"`
	SeatAssignments  []SeatAssignment `json:"seat_assignments"`
	Invigilator      *string          `json:"invigilator,omitempty"`
	LoadBalanceScore *int             `json:"load_balance_score,omitempty"`
}

type examJSON struct {
	CourseID           string               `json:"course_id"`
	CourseCode         string               `json:"course_code"`
	CourseName         string               `json:"course_name"`
	SlotDate           string               `json:"slot_date"`
	SlotTime           string               `json:"slot_time"`
	Status             ExamStatus           `json:"status"`
	Assignments        []roomAssignmentJSON `json:"assignments"`
	UnassignedStudents []string             `json:"unassigned_students,omitempty"`
	Reason             string               `json:"reason,omitempty"`
}

// MarshalJSON flattens the exam into the timetable output record
func (e *Exam) MarshalJSON() ([]byte, error) {
	out := examJSON{
		CourseID:           e.CourseID,
		CourseCode:         e.CourseCode,
		CourseName:         e.CourseName,
		SlotDate:           e.Slot.Date,
		SlotTime:           e.Slot.TimeRange(),
		Status:             e.Status,
		Assignments:        make([]roomAssignmentJSON, 0, len(e.Assignments)),
		UnassignedStudents: e.UnassignedStudents,
		Reason:             e.Reason,
	}

	for _, a := range e.Assignments {
		ra := roomAssignmentJSON{
			RoomID:          a.RoomID,
			Students:        a.Students,
			SeatAssignments: a.Seats,
		}
		if a.Invigilator != nil {
			teacherID := a.Invigilator.TeacherID
			score := a.Invigilator.LoadBalanceScore
			ra.Invigilator = &teacherID
			ra.LoadBalanceScore = &score
		}
		out.Assignments = append(out.Assignments, ra)
	}

	return json.Marshal(out)
}

// UnschedulableRecord explains why an exam could not be fully scheduled
type UnschedulableRecord struct {
	CourseID     string   `json:"course_id"`
	SlotDate     string   `json:"slot_date"`
	SlotTime     string   `json:"slot_time"`
	Reasons      []string `json:"reasons"`
	StudentCount int      `json:"student_count"`
}

// MakeupProposal is a proposed rescheduling for an unschedulable exam.
// Slot is nil when no candidate slot was left.
type MakeupProposal struct {
	CourseID        string
	OriginalReasons []string
	Slot            *TimeSlot
	StudentCount    int
	Status          MakeupStatus
}

// MarshalJSON renders the proposal with nullable makeup date and time
func (p MakeupProposal) MarshalJSON() ([]byte, error) {
	var date, slotTime *string
	if p.Slot != nil {
		d, t := p.Slot.Date, p.Slot.TimeRange()
		date, slotTime = &d, &t
	}
	return json.Marshal(struct {
		CourseID        string       `json:"course_id"`
		OriginalReasons []string     `json:"original_reasons"`
		MakeupDate      *string      `json:"makeup_date"`
		MakeupTime      *string      `json:"makeup_time"`
		StudentCount    int          `json:"student_count"`
		Status          MakeupStatus `json:"status"`
	}{p.CourseID, p.OriginalReasons, date, slotTime, p.StudentCount, p.Status})
}

// GraphStats summarises the course conflict graph
type GraphStats struct {
	Nodes           int     `json:"n_nodes"`
	Edges           int     `json:"n_edges"`
	Density         float64 `json:"density"`
	AvgDegree       float64 `json:"avg_degree"`
	MaxDegreeCourse string  `json:"max_degree_course,omitempty"`
}

// Timetable is the full output of a scheduling run
type Timetable struct {
	RunID          string                `json:"run_id"`
	Seed           int64                 `json:"seed"`
	Score          float64               `json:"score"`
	Generations    int                   `json:"generations"`
	ConflictGraph  GraphStats            `json:"conflict_graph"`
	Exams          []*Exam               `json:"timetable"`
	Warnings       []string              `json:"warnings"`
	Unschedulable  []UnschedulableRecord `json:"unschedulable"`
	MakeupSchedule []MakeupProposal      `json:"makeup_schedule"`

	// Students is the input roster, used by reports to look up batch and
	// section
	Students []Student `json:"-"`
}

// CountByStatus returns how many exams ended in the given status
func (t *Timetable) CountByStatus(status ExamStatus) int {
	count := 0
	for _, exam := range t.Exams {
		if exam.Status == status {
			count++
		}
	}
	return count
}
