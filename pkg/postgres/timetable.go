package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/pkg/db"
)

// InsertTimetable writes a run and all of its exams, room assignments, seats
// and makeup proposals in a single transaction
func (d *DB) InsertTimetable(ctx context.Context, records *db.Records) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	run := records.Run
	_, err = tx.Exec(ctx, `
		INSERT INTO run (id, created_at, seed, score, generations, exam_count,
			scheduled_count, partial_count, unschedulable_count, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.CreatedAt, run.Seed, run.Score, run.Generations, run.ExamCount,
		run.ScheduledCount, run.PartialCount, run.UnschedulableCount, run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range records.Exams {
		batch.Queue(`
			INSERT INTO exam (id, run_id, course_id, course_code, course_name, slot_date,
				slot_time, status, reason, student_count, unassigned_students)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, e.ID, e.RunID, e.CourseID, e.CourseCode, e.CourseName, e.SlotDate,
			e.SlotTime, e.Status, nullable(e.Reason), e.StudentCount, e.UnassignedStudents)
	}
	for _, a := range records.Assignments {
		var score *int
		if a.InvigilatorID != "" {
			score = &a.LoadBalanceScore
		}
		batch.Queue(`
			INSERT INTO room_assignment (id, exam_id, room_id, invigilator_id, load_balance_score, student_count)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.ID, a.ExamID, a.RoomID, nullable(a.InvigilatorID), score, a.StudentCount)
	}
	for _, m := range records.Makeups {
		batch.Queue(`
			INSERT INTO makeup (id, run_id, course_id, makeup_date, makeup_time, status, student_count, reasons)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, m.ID, m.RunID, m.CourseID, nullable(m.MakeupDate), nullable(m.MakeupTime), m.Status, m.StudentCount, m.Reasons)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert timetable rows: %w", err)
	}

	if len(records.Seats) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"seat"},
			[]string{"assignment_id", "student_id", "seat_row", "seat_column"},
			pgx.CopyFromSlice(len(records.Seats), func(i int) ([]any, error) {
				s := records.Seats[i]
				return []any{s.AssignmentID, s.StudentID, s.Row, s.Column}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy seats: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	d.logger.Debug("Persisted timetable",
		zap.String("run_id", run.ID),
		zap.Int("exams", len(records.Exams)),
		zap.Int("assignments", len(records.Assignments)),
		zap.Int("seats", len(records.Seats)),
		zap.Int("makeups", len(records.Makeups)))

	return nil
}

// GetRuns retrieves all runs, newest first
func (d *DB) GetRuns(ctx context.Context) ([]db.Run, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, seed, score, generations, exam_count,
			scheduled_count, partial_count, unschedulable_count, warnings
		FROM run
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		var r db.Run
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &createdAt, &r.Seed, &r.Score, &r.Generations, &r.ExamCount,
			&r.ScheduledCount, &r.PartialCount, &r.UnschedulableCount, &r.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetMakeups retrieves the makeup proposals of one run in proposal order
func (d *DB) GetMakeups(ctx context.Context, runID string) ([]db.MakeupRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, course_id, makeup_date, makeup_time, status, student_count, reasons
		FROM makeup
		WHERE run_id = $1
		ORDER BY makeup_date NULLS LAST, makeup_time, course_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query makeups: %w", err)
	}
	defer rows.Close()

	var makeups []db.MakeupRecord
	for rows.Next() {
		var m db.MakeupRecord
		var makeupDate *time.Time
		var makeupTime *string
		if err := rows.Scan(&m.ID, &m.RunID, &m.CourseID, &makeupDate, &makeupTime, &m.Status, &m.StudentCount, &m.Reasons); err != nil {
			return nil, fmt.Errorf("failed to scan makeup: %w", err)
		}
		if makeupDate != nil {
			m.MakeupDate = makeupDate.Format("2006-01-02")
		}
		if makeupTime != nil {
			m.MakeupTime = *makeupTime
		}
		makeups = append(makeups, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating makeups: %w", err)
	}

	return makeups, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
