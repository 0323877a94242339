// Package api exposes the status HTTP interface for the scraper service.
// Routes:
//   - GET /healthz and /readyz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/schedules for the scheduled sites and their next fire times.
//   - GET /api/runs?site=&limit= for recent run history.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/history"
	"github.com/VikramTiwari/website-scraper/internal/scheduler"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
	historyTimeout  = 3 * time.Second
)

// ScheduleSource serves the current schedule snapshot. The Scheduler
// satisfies it.
type ScheduleSource interface {
	Entries() []scheduler.ScheduleEntry
}

// Server wires the status handlers to the scheduler and run history.
type Server struct {
	router    chi.Router
	schedules ScheduleSource
	runs      history.Store
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(schedules ScheduleSource, runs history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		schedules: schedules,
		runs:      runs,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/schedules", s.listSchedules)
		r.Get("/runs", s.listRuns)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listSchedules(w http.ResponseWriter, _ *http.Request) {
	if s.schedules == nil {
		writeError(s.logger, w, http.StatusServiceUnavailable, "scheduler unavailable")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{
		"schedules": s.schedules.Entries(),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(s.logger, w, http.StatusServiceUnavailable, "run history unavailable")
		return
	}
	limit := defaultRunLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxRunLimit {
			writeError(s.logger, w, http.StatusBadRequest, "limit must be a positive integer up to 500")
			return
		}
		limit = parsed
	}
	site := strings.TrimSpace(r.URL.Query().Get("site"))

	ctx, cancel := context.WithTimeout(r.Context(), historyTimeout)
	defer cancel()
	runs, err := s.runs.ListRuns(ctx, site, limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		writeError(s.logger, w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"runs": runs})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(s.logger, w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]string{"error": msg})
}
