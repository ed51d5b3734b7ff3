package optimizer

// Constraint scores one aspect of a candidate timetable.
//
// Penalty receives the genotype (gene i is the slot index of course i) and
// returns a non-negative cost that is subtracted from the fitness baseline.
// Implementations are called concurrently and must only read shared state.
type Constraint interface {
	Name() string
	Penalty(genes []int) float64
}

// ConflictSource selects which structure drives the hard "shared student,
// same day" constraint
type ConflictSource string

const (
	// ConflictSourceEnrollments counts, per student and day, every exam beyond
	// the first
	ConflictSourceEnrollments ConflictSource = "enrollments"

	// ConflictSourceGraph penalises every conflict-graph edge whose two courses
	// fall on the same day, weighted by the number of students they share
	ConflictSourceGraph ConflictSource = "graph"
)

const (
	// Baseline is the fitness of a timetable with no penalties
	Baseline = 1000.0

	// SameDayPenalty is charged per extra exam a student sits on one day
	SameDayPenalty = 1000.0

	// LargeClassPenalty is charged per course above the large-class threshold
	LargeClassPenalty = 10.0

	// DefaultLargeClassThreshold is the enrollment above which a course is
	// expected to need more than one room
	DefaultLargeClassThreshold = 50
)
