package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/internal/config"
	"github.com/jakechorley/exam-scheduler/pkg/core/calendar"
	"github.com/jakechorley/exam-scheduler/pkg/core/conflictgraph"
	"github.com/jakechorley/exam-scheduler/pkg/core/conflicts"
	"github.com/jakechorley/exam-scheduler/pkg/core/invigilation"
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/optimizer"
	"github.com/jakechorley/exam-scheduler/pkg/core/rooms"
	"github.com/jakechorley/exam-scheduler/pkg/db"
)

// ScheduleInput is the parsed input of one scheduling run
type ScheduleInput struct {
	// Students are carried through to the timetable for reporting only
	Students    []model.Student
	Courses     []model.Course
	Enrollments []model.Enrollment
	Rooms       []model.Room

	// Teachers is the invigilator roster. When empty, a synthetic always
	// available roster of cfg.DefaultInvigilators teachers is used.
	Teachers []model.Teacher

	// Holidays are removed from the configured exam days, on top of cfg.Holidays
	Holidays []string

	// UnknownCourseCodes are enrolled codes that matched no course. They are
	// reported as warnings.
	UnknownCourseCodes []string
}

// ScheduleOptions adjusts a single run
type ScheduleOptions struct {
	// DryRun skips persistence even when a store is configured
	DryRun bool

	// Seed overrides optimization.random_seed when set
	Seed *int64

	// ExamDays replaces exam_days and exam_days_rule when non-empty.
	// Holidays are still removed.
	ExamDays []string

	// ExamSlots replaces exam_slots when non-empty
	ExamSlots []model.SlotTemplate

	// BufferDays overrides buffer_days when set
	BufferDays *int
}

// ScheduleStore defines the database operations needed for a scheduling run
type ScheduleStore interface {
	InsertTimetable(ctx context.Context, records *db.Records) error
}

// RunSchedule runs the full pipeline: conflict graph, slot search, room and
// seat allocation, invigilator assignment, then conflict detection and makeup
// proposals. Only invalid input returns an error before scheduling starts;
// every later problem is recorded on the returned timetable.
// store may be nil, in which case nothing is persisted.
func RunSchedule(
	ctx context.Context,
	input ScheduleInput,
	cfg *config.Config,
	store ScheduleStore,
	logger *zap.Logger,
	opts ScheduleOptions,
) (*model.Timetable, error) {
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	logger.Debug("Starting schedule run",
		zap.Int("courses", len(input.Courses)),
		zap.Int("enrollments", len(input.Enrollments)),
		zap.Int("rooms", len(input.Rooms)),
		zap.Int("teachers", len(input.Teachers)),
		zap.Bool("dry_run", opts.DryRun))

	// Step 1: Validate input
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	bufferDays := cfg.BufferDays
	if opts.BufferDays != nil {
		bufferDays = *opts.BufferDays
	}
	if bufferDays < 0 {
		return nil, model.NewValidationError("buffer_days", "must not be negative, got %d", bufferDays)
	}

	// Step 2: Build conflict graph
	graph := conflictgraph.Build(input.Enrollments)
	stats := graph.Stats()
	logger.Debug("Built conflict graph",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
		zap.Float64("density", stats.Density))

	// Step 3: Resolve exam days and slots
	days, rule := cfg.ExamDays, cfg.ExamDaysRule
	if len(opts.ExamDays) > 0 {
		days, rule = opts.ExamDays, ""
	}
	holidays := append(append([]string{}, cfg.Holidays...), input.Holidays...)
	examDays, err := calendar.ExpandExamDays(days, rule, holidays)
	if err != nil {
		return nil, err
	}
	templates := cfg.SlotTemplates()
	if len(opts.ExamSlots) > 0 {
		templates = opts.ExamSlots
	}
	slots := calendar.BuildSlots(examDays, templates)
	logger.Debug("Resolved exam slots",
		zap.Strings("exam_days", examDays),
		zap.Int("slots", len(slots)))

	// Step 4: Search for a slot assignment
	params, err := cfg.OptimizerParams()
	if err != nil {
		return nil, fmt.Errorf("failed to read optimization params: %w", err)
	}
	if opts.Seed != nil {
		params.Seed = *opts.Seed
	}

	problem := optimizer.Problem{
		Courses:             input.Courses,
		Slots:               slots,
		Enrollments:         input.Enrollments,
		Graph:               graph,
		ConflictSource:      optimizer.ConflictSource(cfg.Optimization.ConflictSource),
		LargeClassThreshold: cfg.Optimization.LargeClassThreshold,
	}

	opt, err := optimizer.New(problem, params, logger)
	if err != nil {
		return nil, err
	}
	result, err := opt.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("slot optimization failed: %w", err)
	}
	logger.Info("Slot optimization complete",
		zap.Float64("score", result.Score),
		zap.Int("generations", result.Generations),
		zap.String("stop_reason", string(result.StopReason)))

	exams, err := optimizer.BuildExams(problem, result.Best)
	if err != nil {
		return nil, fmt.Errorf("failed to map best individual to exams: %w", err)
	}

	// Step 5: Allocate rooms and seats
	allocation := rooms.Allocate(exams, input.Rooms, params.Workers, logger)
	logger.Debug("Allocated rooms",
		zap.Int("slot_groups", len(allocation.Groups)),
		zap.Int("over_capacity_groups", len(allocation.OverCapacity)))

	// Step 6: Assign invigilators
	teachers := input.Teachers
	if len(teachers) == 0 {
		teachers = invigilation.DefaultRoster(cfg.DefaultInvigilators)
		logger.Debug("No teachers supplied, using default roster", zap.Int("count", len(teachers)))
	}
	invigilatorWarnings := invigilation.Assign(exams, teachers, invigilation.Config{
		MaxRoomsPerTeacher: cfg.MaxRoomsPerTeacher,
		Workers:            params.Workers,
	}, logger)

	// Step 7: Detect unschedulable exams and propose makeups
	unschedulable := conflicts.Detect(exams, input.Rooms)

	window, err := calendar.MakeupWindow(examDays[0], bufferDays, templates)
	if err != nil {
		return nil, fmt.Errorf("failed to build makeup window: %w", err)
	}
	makeups := conflicts.ScheduleMakeup(unschedulable, window)

	for _, m := range makeups {
		if m.Status == model.MakeupNoSlotAvailable {
			logger.Warn("No makeup slot available", zap.String("course_id", m.CourseID))
		}
	}

	warnings := []string{}
	for _, code := range input.UnknownCourseCodes {
		warnings = append(warnings, fmt.Sprintf("Unknown course code %s in enrollments", code))
	}
	warnings = append(warnings, invigilatorWarnings...)

	tt := &model.Timetable{
		RunID:          runID,
		Seed:           params.Seed,
		Score:          result.Score,
		Generations:    result.Generations,
		ConflictGraph:  stats,
		Exams:          exams,
		Warnings:       warnings,
		Unschedulable:  unschedulable,
		MakeupSchedule: makeups,
		Students:       input.Students,
	}

	logger.Info("Schedule run complete",
		zap.Int("exams", len(exams)),
		zap.Int("scheduled", tt.CountByStatus(model.StatusScheduled)),
		zap.Int("partial", tt.CountByStatus(model.StatusPartial)),
		zap.Int("unschedulable", len(unschedulable)),
		zap.Int("warnings", len(warnings)))

	// Step 8: Persist
	if store == nil || opts.DryRun {
		logger.Debug("Skipping persistence", zap.Bool("store_configured", store != nil))
		return tt, nil
	}

	if err := store.InsertTimetable(ctx, db.BuildRecords(tt, time.Now())); err != nil {
		return nil, fmt.Errorf("failed to save timetable: %w", err)
	}
	logger.Debug("Saved timetable")

	return tt, nil
}

// ValidateInput checks the fields every later stage relies on
func ValidateInput(input ScheduleInput) error {
	seen := make(map[string]bool, len(input.Courses))
	for i, c := range input.Courses {
		if c.ID == "" {
			return model.NewValidationError("course_id", "course %d has no id", i+1)
		}
		if seen[c.ID] {
			return model.NewValidationError("course_id", "duplicate course %s", c.ID)
		}
		seen[c.ID] = true
	}

	for i, r := range input.Rooms {
		if r.ID == "" {
			return model.NewValidationError("room_id", "room %d has no id", i+1)
		}
		if r.Capacity < 0 {
			return model.NewValidationError("capacity", "room %s has negative capacity %d", r.ID, r.Capacity)
		}
		if r.Columns < 1 {
			return model.NewValidationError("num_columns", "room %s must have at least one column", r.ID)
		}
	}

	for _, e := range input.Enrollments {
		if e.StudentID == "" || e.CourseID == "" {
			return model.NewValidationError("enrollments", "enrollment %+v is incomplete", e)
		}
	}

	return nil
}
