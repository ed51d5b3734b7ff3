package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-scheduler/internal/config"
	"github.com/jakechorley/exam-scheduler/pkg/db"
	"github.com/jakechorley/exam-scheduler/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Store is the persistence the API needs. It may be nil, in which case runs
// are not saved and history endpoints answer 503.
type Store interface {
	db.TimetableStore
	db.RunStore
}

// Server serves the scheduling pipeline over HTTP
type Server struct {
	cfg     *config.Config
	store   Store
	logger  *zap.Logger
	metrics *metrics.Recorder
	router  *gin.Engine
}

// New builds the server and its routes
func New(cfg *config.Config, store Store, logger *zap.Logger, recorder *metrics.Recorder) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.logger))
	r.Use(observeRequests(s.metrics))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/schedule", s.schedule)
	v1.GET("/runs", s.listRuns)
	v1.GET("/runs/:id/makeups", s.listMakeups)

	return r
}

// Run listens on cfg.Server.Addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No write timeout: a schedule request lasts as long as the search
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
