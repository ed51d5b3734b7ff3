package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/internal/config"
	"github.com/jakechorley/exam-scheduler/pkg/db"
	"github.com/jakechorley/exam-scheduler/pkg/export"
	"github.com/jakechorley/exam-scheduler/pkg/metrics"
)

// mockStore implements Store for testing
type mockStore struct {
	inserted []*db.Records
	runs     []db.Run
	makeups  map[string][]db.MakeupRecord
}

func (m *mockStore) InsertTimetable(ctx context.Context, records *db.Records) error {
	m.inserted = append(m.inserted, records)
	return nil
}

func (m *mockStore) GetRuns(ctx context.Context) ([]db.Run, error) {
	return m.runs, nil
}

func (m *mockStore) GetMakeups(ctx context.Context, runID string) ([]db.MakeupRecord, error) {
	return m.makeups[runID], nil
}

var uploads = map[string]string{
	"students.csv": "student_id,name,enrolled_courses\nS001,Alice,\"MATH101, PHYS101\"\nS002,Bob,PHYS101;CHEM101\nS003,Cara,MATH101|BIO999\n",
	"courses.csv":  "course_id,code,name\nC001,MATH101,Mathematics\nC002,PHYS101,Physics\nC003,CHEM101,Chemistry\n",
	"rooms.csv":    "room_id,name,capacity,num_columns\nR001,Hall,30,5\n",
}

func newTestServer(store Store) *Server {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Optimization.PopulationSize = 20
	cfg.Optimization.Generations = 20
	return New(cfg, store, zap.NewNop(), metrics.New())
}

// scheduleRequest builds a multipart upload of the given fields, each named
// after its file without extension
func scheduleRequest(t *testing.T, query string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for filename, content := range files {
		field := filename[:len(filename)-len(".csv")]
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule"+query, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"status":"ok","persistence":false}}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	w := serve(s, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestSchedule_JSON(t *testing.T) {
	store := &mockStore{}
	s := newTestServer(store)

	w := serve(s, scheduleRequest(t, "?seed=7", uploads))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			RunID     string           `json:"run_id"`
			Seed      int64            `json:"seed"`
			Timetable []map[string]any `json:"timetable"`
			Warnings  []string         `json:"warnings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Data.Seed)
	assert.Len(t, resp.Data.Timetable, 3)
	assert.Equal(t, []string{"Unknown course code BIO999 in enrollments"}, resp.Data.Warnings)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, resp.Data.RunID, store.inserted[0].Run.ID)

	metricsBody := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, metricsBody, `exam_scheduler_runs_total{outcome="success"} 1`)
	assert.Contains(t, metricsBody, `path="/api/v1/schedule"`)
}

func TestSchedule_DryRun(t *testing.T) {
	store := &mockStore{}
	s := newTestServer(store)

	w := serve(s, scheduleRequest(t, "?dry_run=true", uploads))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.inserted)
}

func TestSchedule_XLSX(t *testing.T) {
	s := newTestServer(nil)

	w := serve(s, scheduleRequest(t, "?format=xlsx", uploads))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, export.SheetTimetable, f.GetSheetList()[0])
}

func TestSchedule_PDF(t *testing.T) {
	s := newTestServer(nil)

	w := serve(s, scheduleRequest(t, "?format=pdf", uploads))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypePDF, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestSchedule_MissingRequiredUpload(t *testing.T) {
	s := newTestServer(nil)
	files := map[string]string{
		"students.csv": uploads["students.csv"],
		"courses.csv":  uploads["courses.csv"],
	}

	w := serve(s, scheduleRequest(t, "", files))

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "validation", body.Code)
	assert.Equal(t, "rooms", body.Field)
}

func TestSchedule_BadQuery(t *testing.T) {
	s := newTestServer(nil)

	for _, query := range []string{"?seed=abc", "?dry_run=maybe", "?format=docx"} {
		w := serve(s, scheduleRequest(t, query, uploads))

		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.Equal(t, "bad_request", decodeError(t, w).Code, query)
	}
}

func TestSchedule_ExamPeriodOverrides(t *testing.T) {
	s := newTestServer(nil)

	w := serve(s, scheduleRequest(t, "?start_date=2024-06-03&end_date=2024-06-05&slots=13:00-15:00&buffer_days=4", uploads))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			Timetable []struct {
				SlotDate string `json:"slot_date"`
				SlotTime string `json:"slot_time"`
			} `json:"timetable"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Timetable, 3)
	for _, exam := range resp.Data.Timetable {
		assert.Contains(t, []string{"2024-06-03", "2024-06-04", "2024-06-05"}, exam.SlotDate)
		assert.Equal(t, "13:00-15:00", exam.SlotTime)
	}
}

func TestSchedule_BadExamPeriod(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		query string
		field string
	}{
		{"?start_date=2024-06-03", "start_date"},
		{"?start_date=2024-06-05&end_date=2024-06-03", "end_date"},
		{"?slots=12:00-09:00", "exam_slots"},
	}
	for _, tc := range tests {
		w := serve(s, scheduleRequest(t, tc.query, uploads))

		require.Equal(t, http.StatusBadRequest, w.Code, tc.query)
		body := decodeError(t, w)
		assert.Equal(t, "validation", body.Code, tc.query)
		assert.Equal(t, tc.field, body.Field, tc.query)
	}

	w := serve(s, scheduleRequest(t, "?buffer_days=-1", uploads))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decodeError(t, w).Code)
}

func TestSchedule_HolidaysRemoveEveryDay(t *testing.T) {
	s := newTestServer(nil)
	files := map[string]string{"holidays.csv": "date\n2024-05-01\n2024-05-02\n"}
	for name, content := range uploads {
		files[name] = content
	}

	w := serve(s, scheduleRequest(t, "", files))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "exam_days", decodeError(t, w).Field)

	metricsBody := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, metricsBody, `exam_scheduler_runs_total{outcome="invalid"} 1`)
}

func TestRuns_NoStore(t *testing.T) {
	s := newTestServer(nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decodeError(t, w).Code)
}

func TestRunsAndMakeups(t *testing.T) {
	store := &mockStore{
		runs: []db.Run{{ID: "run-1", CreatedAt: "2024-05-01T09:00:00Z", ExamCount: 3, ScheduledCount: 3}},
		makeups: map[string][]db.MakeupRecord{
			"run-1": {{ID: "m1", RunID: "run-1", CourseID: "C001", MakeupDate: "2024-05-03", MakeupTime: "09:00-12:00", Status: "proposed", StudentCount: 25}},
		},
	}
	s := newTestServer(store)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var runs struct {
		Data []db.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	assert.Equal(t, store.runs, runs.Data)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1/makeups", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var makeups struct {
		Data []db.MakeupRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &makeups))
	assert.Equal(t, store.makeups["run-1"], makeups.Data)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestServer(nil)
	s.cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.Run(ctx))
}
