package db

import "context"

// TimetableStore persists a completed run
type TimetableStore interface {
	InsertTimetable(ctx context.Context, records *Records) error
}

// RunStore lists persisted runs
type RunStore interface {
	GetRuns(ctx context.Context) ([]Run, error)
	GetMakeups(ctx context.Context, runID string) ([]MakeupRecord, error)
}

// Database defines the interface for all database operations
type Database interface {
	TimetableStore
	RunStore
	Close()
}
