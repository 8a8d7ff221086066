// Package httpapi exposes batch triggering, category weights, health and
// metrics over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
	"github.com/ppiankov/orbitplan/internal/scoring"
)

const maxRequestBody = 1 << 20

// Runner executes one weekly batch.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (orchestrator.Summary, error)
}

// WeightSource reports category weights over a window.
type WeightSource interface {
	ContentTypeWeights(ctx context.Context, windowDays int) (map[string]scoring.CategoryScore, error)
	SuppressedCategories(ctx context.Context, windowDays int) ([]string, error)
	PromotedCategories(ctx context.Context, windowDays int) ([]string, error)
}

// Pinger checks a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires a Server.
type Options struct {
	Runner     Runner
	Weights    WeightSource
	Health     Pinger
	Gatherer   prometheus.Gatherer
	WindowDays int
	Log        logrus.FieldLogger
}

// Server is the HTTP surface.
type Server struct {
	opts Options
	log  logrus.FieldLogger
}

// New creates a server. A nil gatherer serves the default registry.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("batch runner is required")
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = scoring.DefaultWindowDays
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Server{opts: opts, log: log}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/batches", s.runBatch)
		r.Get("/weights", s.weights)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health.Ping(r.Context()); err != nil {
			s.log.WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runBatch triggers a batch. An empty body uses the defaults.
func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	sum, err := s.opts.Runner.Run(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sum)
	case errors.Is(err, orchestrator.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, sum)
	default:
		s.log.WithError(err).Error("batch failed")
		writeJSON(w, http.StatusInternalServerError, sum)
	}
}

// WeightRow is one category in the weights response.
type WeightRow struct {
	Category   string  `json:"category"`
	Weight     float64 `json:"weight"`
	Score      float64 `json:"score"`
	Count      int     `json:"count"`
	AvgViews   float64 `json:"avgViews"`
	Trend      float64 `json:"trend"`
	Seeded     bool    `json:"seeded"`
	Suppressed bool    `json:"suppressed"`
}

// WeightsResponse is the body of GET /api/v1/weights.
type WeightsResponse struct {
	WindowDays int         `json:"windowDays"`
	Categories []WeightRow `json:"categories"`
	Suppressed []string    `json:"suppressed"`
	Promoted   []string    `json:"promoted"`
}

func (s *Server) weights(w http.ResponseWriter, r *http.Request) {
	if s.opts.Weights == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "weights unavailable"})
		return
	}
	ctx := r.Context()
	window := s.opts.WindowDays

	scores, err := s.opts.Weights.ContentTypeWeights(ctx, window)
	if err != nil {
		s.log.WithError(err).Error("content weights failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "content weights failed"})
		return
	}
	suppressed, err := s.opts.Weights.SuppressedCategories(ctx, window)
	if err != nil {
		s.log.WithError(err).Warn("suppressed categories failed")
	}
	promoted, err := s.opts.Weights.PromotedCategories(ctx, window)
	if err != nil {
		s.log.WithError(err).Warn("promoted categories failed")
	}

	resp := WeightsResponse{
		WindowDays: window,
		Categories: make([]WeightRow, 0, len(scores)),
		Suppressed: nonNil(suppressed),
		Promoted:   nonNil(promoted),
	}
	for _, cs := range scores {
		resp.Categories = append(resp.Categories, WeightRow{
			Category:   cs.Category,
			Weight:     cs.Weight,
			Score:      cs.Score,
			Count:      cs.Count,
			AvgViews:   cs.AvgViews,
			Trend:      cs.Trend,
			Seeded:     cs.Seeded,
			Suppressed: cs.Suppressed,
		})
	}
	sort.Slice(resp.Categories, func(i, j int) bool {
		a, b := resp.Categories[i], resp.Categories[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Category < b.Category
	})
	writeJSON(w, http.StatusOK, resp)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
