// Package api serves the pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/dataset"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/vector"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, company string, onUpdate func([]model.AgentStatus)) model.PipelineState
}

// RunReader reads stored runs.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*model.PipelineState, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
}

// Searcher answers similarity queries.
type Searcher interface {
	Similar(ctx context.Context, query string, k int, exclude string) ([]vector.Match, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	runner  Runner
	runs    RunReader
	search  Searcher
	origins []string
}

// Option configures a Server.
type Option func(*Server)

// WithRuns enables the run history routes.
func WithRuns(r RunReader) Option {
	return func(s *Server) { s.runs = r }
}

// WithSearch enables the similarity route.
func WithSearch(q Searcher) Option {
	return func(s *Server) { s.search = q }
}

// WithCORSOrigins sets the allowed origins. Defaults to "*".
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// New creates a Server around runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{runner: runner, origins: []string{"*"}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the router for every endpoint.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/demo-companies", s.handleDemoCompanies)
		r.Post("/research", s.handleResearch)
		r.Post("/research/stream", s.handleResearchStream)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/similar", s.handleSimilar)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDemoCompanies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"companies": dataset.Companies()})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	company, ok := decodeCompany(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.runner.Run(r.Context(), company, nil))
}

// handleResearchStream writes one NDJSON line per agent snapshot and ends
// with the final PipelineState.
func (s *Server) handleResearchStream(w http.ResponseWriter, r *http.Request) {
	company, ok := decodeCompany(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	st := s.runner.Run(r.Context(), company, func(agents []model.AgentStatus) {
		if err := enc.Encode(map[string]any{"agents": agents}); err != nil {
			return
		}
		flush()
	})
	if err := enc.Encode(st); err != nil {
		zap.L().Debug("api: stream client gone", zap.Error(err))
		return
	}
	flush()
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	st, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusNotFound, "similarity search is disabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))
	matches, err := s.search.Similar(r.Context(), q, k, r.URL.Query().Get("exclude"))
	if err != nil {
		zap.L().Error("api: similar", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}
	if matches == nil {
		matches = []vector.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// decodeCompany reads {"companyName": "..."} and answers 400 itself when the
// field is missing, empty or not a string.
func decodeCompany(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	name, ok := body["companyName"].(string)
	if !ok || name == "" {
		writeError(w, http.StatusBadRequest, "Company name is required")
		return "", false
	}
	return name, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
