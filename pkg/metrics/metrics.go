package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

const namespace = "exam_scheduler"

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Recorder holds the scheduler's Prometheus collectors. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	score       prometheus.Gauge
	generations prometheus.Gauge
	exams       *prometheus.GaugeVec
	makeups     *prometheus.GaugeVec
	warnings    prometheus.Gauge

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scheduling runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of successful scheduling runs",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_score",
			Help:      "Fitness score of the last run",
		}),
		generations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_generations",
			Help:      "Generations completed by the last run",
		}),
		exams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_exams",
			Help:      "Exams of the last run by status",
		}, []string{"status"}),
		makeups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_makeups",
			Help:      "Makeup proposals of the last run by status",
		}, []string{"status"}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_warnings",
			Help:      "Warnings raised by the last run",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}

	registry.MustRegister(
		r.runs, r.runDuration, r.score, r.generations,
		r.exams, r.makeups, r.warnings,
		r.requestDuration, r.requestTotal,
	)
	r.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return r
}

// Handler exposes the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// ObserveRun records a completed run
func (r *Recorder) ObserveRun(tt *model.Timetable, duration time.Duration) {
	if r == nil {
		return
	}

	r.runs.WithLabelValues(OutcomeSuccess).Inc()
	r.runDuration.Observe(duration.Seconds())
	r.score.Set(tt.Score)
	r.generations.Set(float64(tt.Generations))
	r.warnings.Set(float64(len(tt.Warnings)))

	for _, status := range []model.ExamStatus{model.StatusScheduled, model.StatusPartial, model.StatusUnschedulable} {
		r.exams.WithLabelValues(string(status)).Set(float64(tt.CountByStatus(status)))
	}

	counts := map[model.MakeupStatus]int{}
	for _, m := range tt.MakeupSchedule {
		counts[m.Status]++
	}
	for _, status := range []model.MakeupStatus{model.MakeupProposed, model.MakeupNoSlotAvailable} {
		r.makeups.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

// ObserveRunFailure counts a run that returned an error. Validation errors
// are counted separately from the rest.
func (r *Recorder) ObserveRunFailure(err error) {
	if r == nil {
		return
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		r.runs.WithLabelValues(OutcomeInvalid).Inc()
		return
	}
	r.runs.WithLabelValues(OutcomeError).Inc()
}

// ObserveHTTPRequest records one served request
func (r *Recorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	code := strconv.Itoa(status)
	r.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	r.requestTotal.WithLabelValues(method, path, code).Inc()
}

// WriteTextfile writes the registry to path for a node exporter textfile
// collector
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
