package rooms

import "github.com/jakechorley/exam-scheduler/pkg/core/model"

// DefaultColumns is the column count of rooms that do not declare one
const DefaultColumns = 4

// AssignSeats lays students out column-major: columns outer, rows inner, with
// rows = ceil(len(students) / columns). Positions are 1-based. Consecutive
// students end up in the same column rather than side by side.
func AssignSeats(students []string, columns int) []model.SeatAssignment {
	if len(students) == 0 {
		return []model.SeatAssignment{}
	}
	if columns < 1 {
		columns = 1
	}

	rows := (len(students) + columns - 1) / columns
	seats := make([]model.SeatAssignment, 0, len(students))

	for col := 0; col < columns && len(seats) < len(students); col++ {
		for row := 0; row < rows && len(seats) < len(students); row++ {
			seats = append(seats, model.SeatAssignment{
				StudentID: students[len(seats)],
				Row:       row + 1,
				Column:    col + 1,
			})
		}
	}

	return seats
}
