// Package api serves the operator HTTP surface: health, crawl run history,
// profile provenance, triggering a crawl and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/metrics"
	"github.com/vivahvendors/vendor-crawler/internal/pipeline"
	"github.com/vivahvendors/vendor-crawler/internal/source"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// Runner executes a crawl.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOpts) (*pipeline.RunResult, error)
}

// Options configures a Server.
type Options struct {
	// Defaults fill fields missing from a POST /runs body.
	Defaults    pipeline.RunOpts
	CORSOrigins []string
	Recorder    *metrics.Recorder
}

// Server is the operator API. At most one crawl triggered through it runs
// at a time.
type Server struct {
	store    catalog.Store
	registry *source.Registry
	runner   Runner
	opts     Options

	baseCtx context.Context
	running sync.Mutex
	wg      sync.WaitGroup
	log     *zap.Logger
}

// NewServer creates a Server. Crawls started through the API run under
// baseCtx, so canceling it interrupts them.
func NewServer(baseCtx context.Context, store catalog.Store, registry *source.Registry, runner Runner, opts Options) *Server {
	return &Server{
		store:    store,
		registry: registry,
		runner:   runner,
		opts:     opts,
		baseCtx:  baseCtx,
		log:      zap.L().With(zap.String("component", "api")),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Post("/", s.startRun)
		r.Get("/{id}", s.getRun)
	})
	r.Get("/profiles/{id}/sources", s.profileSources)
	if s.opts.Recorder != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Recorder.Handler())
	}
	return r
}

// Wait blocks until a crawl started through the API has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("api: health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.internalError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []catalog.CrawlRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.internalError(w, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) profileSources(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetProfile(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		s.internalError(w, "get profile", err)
		return
	}

	links, err := s.store.SourceLinks(r.Context(), id)
	if err != nil {
		s.internalError(w, "source links", err)
		return
	}
	if links == nil {
		links = []catalog.SourceLink{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile_id": id, "sources": links})
}

type startRunRequest struct {
	Source   string `json:"source"`
	Region   string `json:"region"`
	City     string `json:"city"`
	Category string `json:"category"`
	Max      int    `json:"max"`
	Seed     bool   `json:"seed"`
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	opts := s.opts.Defaults
	if req.Source != "" {
		opts.Source = req.Source
	}
	if req.Region != "" {
		opts.Region = req.Region
	}
	if req.City != "" {
		opts.City = req.City
	}
	if req.Category != "" {
		opts.Category = req.Category
	}
	if req.Max > 0 {
		opts.MaxResults = req.Max
	}
	opts.Seed = req.Seed

	if _, err := s.registry.Select(opts.Source); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.running.TryLock() {
		writeError(w, http.StatusConflict, "a crawl is already running")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Unlock()

		res, err := s.runner.Run(s.baseCtx, opts)
		if err != nil {
			s.log.Error("api: crawl failed", zap.String("source", opts.Label()), zap.Error(err))
			return
		}
		s.log.Info("api: crawl finished",
			zap.String("run_id", res.RunID),
			zap.String("status", string(res.Status)),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"source": opts.Label(),
	})
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.log.Error("api: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
