package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/pkg/core/calendar"
	"github.com/jakechorley/exam-scheduler/pkg/core/model"
	"github.com/jakechorley/exam-scheduler/pkg/core/services"
	"github.com/jakechorley/exam-scheduler/pkg/export"
	"github.com/jakechorley/exam-scheduler/pkg/ingest"
)

// Output formats of POST /api/v1/schedule
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// envelope is the body of every JSON response
type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, envelope{Data: data})
}

// respondError maps validation errors to 400 and everything else to status
func respondError(c *gin.Context, status int, err error) {
	body := &errorBody{Code: "internal", Message: err.Error()}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body = &errorBody{Code: "validation", Field: verr.Field, Message: verr.Message}
	case status == http.StatusBadRequest:
		body.Code = "bad_request"
	case status == http.StatusServiceUnavailable:
		body.Code = "unavailable"
	}

	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, envelope{Error: body})
}

func (s *Server) health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"status":      "ok",
		"persistence": s.store != nil,
	})
}

// schedule runs the pipeline on uploaded tables. Multipart fields students,
// courses and rooms are required; teachers and holidays are optional.
// Query: seed, dry_run, format (json, xlsx or pdf), and exam period overrides
// start_date and end_date (together), slots ("09:00-12:00,14:00-17:00") and
// buffer_days.
func (s *Server) schedule(c *gin.Context) {
	format := c.DefaultQuery("format", FormatJSON)
	if format != FormatJSON && format != FormatXLSX && format != FormatPDF {
		respondError(c, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}

	opts, err := scheduleOptions(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadMB<<20)
	tables, err := readUploads(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	input, err := ingest.BuildInput(tables)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	var store services.ScheduleStore
	if s.store != nil {
		store = s.store
	}

	logger := s.logger.With(zap.String("request_id", c.GetString(requestIDKey)))
	start := time.Now()
	tt, err := services.RunSchedule(c.Request.Context(), input, s.cfg, store, logger, opts)
	if err != nil {
		s.metrics.ObserveRunFailure(err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	s.metrics.ObserveRun(tt, time.Since(start))

	switch format {
	case FormatXLSX:
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="timetable_%s.xlsx"`, tt.RunID))
		c.Header("Content-Type", contentTypeXLSX)
		c.Status(http.StatusOK)
		if err := export.WriteWorkbook(tt, c.Writer); err != nil {
			logger.Error("Failed to stream workbook", zap.Error(err))
		}
	case FormatPDF:
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="timetable_%s.pdf"`, tt.RunID))
		c.Header("Content-Type", contentTypePDF)
		c.Status(http.StatusOK)
		if err := export.WritePDF(tt, c.Writer); err != nil {
			logger.Error("Failed to stream pdf", zap.Error(err))
		}
	default:
		respond(c, http.StatusOK, tt)
	}
}

func scheduleOptions(c *gin.Context) (services.ScheduleOptions, error) {
	var opts services.ScheduleOptions

	if raw := c.Query("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("seed must be an integer, got %q", raw)
		}
		opts.Seed = &seed
	}

	if raw := c.Query("dry_run"); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("dry_run must be a boolean, got %q", raw)
		}
		opts.DryRun = dryRun
	}

	start, end := c.Query("start_date"), c.Query("end_date")
	if (start == "") != (end == "") {
		return opts, model.NewValidationError("start_date", "start_date and end_date must be given together")
	}
	if start != "" {
		days, err := calendar.DateRange(start, end)
		if err != nil {
			return opts, err
		}
		opts.ExamDays = days
	}

	if raw := c.Query("slots"); raw != "" {
		templates, err := calendar.ParseSlotTemplates(raw)
		if err != nil {
			return opts, err
		}
		opts.ExamSlots = templates
	}

	if raw := c.Query("buffer_days"); raw != "" {
		bufferDays, err := strconv.Atoi(raw)
		if err != nil || bufferDays < 0 {
			return opts, fmt.Errorf("buffer_days must be a non-negative integer, got %q", raw)
		}
		opts.BufferDays = &bufferDays
	}

	return opts, nil
}

// readUploads parses each uploaded table, choosing the format from the
// uploaded file name
func readUploads(c *gin.Context) (ingest.Tables, error) {
	var tables ingest.Tables
	fields := []struct {
		name     string
		required bool
		table    **ingest.Table
	}{
		{"students", true, &tables.Students},
		{"courses", true, &tables.Courses},
		{"rooms", true, &tables.Rooms},
		{"teachers", false, &tables.Teachers},
		{"holidays", false, &tables.Holidays},
	}

	for _, field := range fields {
		header, err := c.FormFile(field.name)
		if errors.Is(err, http.ErrMissingFile) {
			if field.required {
				return tables, model.NewValidationError(field.name, "file is required")
			}
			continue
		}
		if err != nil {
			return tables, fmt.Errorf("failed to read %s upload: %w", field.name, err)
		}

		format, err := ingest.FormatFromPath(header.Filename)
		if err != nil {
			return tables, err
		}

		f, err := header.Open()
		if err != nil {
			return tables, fmt.Errorf("failed to open %s upload: %w", field.name, err)
		}
		table, err := ingest.Read(field.name, f, format)
		f.Close()
		if err != nil {
			return tables, err
		}
		*field.table = table
	}

	return tables, nil
}

func (s *Server) listRuns(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("persistence is not configured"))
		return
	}

	runs, err := s.store.GetRuns(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respond(c, http.StatusOK, runs)
}

func (s *Server) listMakeups(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, errors.New("persistence is not configured"))
		return
	}

	makeups, err := s.store.GetMakeups(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respond(c, http.StatusOK, makeups)
}
