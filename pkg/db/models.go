package db

// Run represents a database record of one scheduling run
type Run struct {
	ID                 string   `json:"id"`
	CreatedAt          string   `json:"created_at"`          // RFC3339, UTC
	Seed               int64    `json:"seed"`
	Score              float64  `json:"score"`
	Generations        int      `json:"generations"`
	ExamCount          int      `json:"exam_count"`
	ScheduledCount     int      `json:"scheduled_count"`
	PartialCount       int      `json:"partial_count"`
	UnschedulableCount int      `json:"unschedulable_count"`
	Warnings           []string `json:"warnings"`
}

// ExamRecord represents a database exam record
type ExamRecord struct {
	ID                 string
	RunID              string
	CourseID           string
	CourseCode         string
	CourseName         string
	SlotDate           string
	SlotTime           string
	Status             string
	Reason             string
	StudentCount       int
	UnassignedStudents []string
}

// RoomAssignmentRecord represents one room used by an exam.
// InvigilatorID is empty when the room was left unstaffed.
type RoomAssignmentRecord struct {
	ID               string
	ExamID           string
	RoomID           string
	InvigilatorID    string
	LoadBalanceScore int
	StudentCount     int
}

// SeatRecord represents a student's seat within a room assignment
type SeatRecord struct {
	AssignmentID string
	StudentID    string
	Row          int
	Column       int
}

// MakeupRecord represents a makeup proposal. MakeupDate and MakeupTime are
// empty when no slot was available.
type MakeupRecord struct {
	ID           string   `json:"id"`
	RunID        string   `json:"run_id"`
	CourseID     string   `json:"course_id"`
	MakeupDate   string   `json:"makeup_date"`
	MakeupTime   string   `json:"makeup_time"`
	Status       string   `json:"status"`
	StudentCount int      `json:"student_count"`
	Reasons      []string `json:"reasons"`
}

// Records is everything persisted for one run
type Records struct {
	Run         Run
	Exams       []ExamRecord
	Assignments []RoomAssignmentRecord
	Seats       []SeatRecord
	Makeups     []MakeupRecord
}
