// Package server exposes the recommendation engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"yashubustudio/deliveryadvisor/advisor"
	"yashubustudio/deliveryadvisor/internal/metrics"
)

const maxBodyBytes = 4 << 10

// Server holds the read-only engine shared by all requests.
type Server struct {
	engine   *advisor.Engine
	metrics  *metrics.Recorder
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New builds a server. rec and gatherer may be nil to disable metrics.
func New(engine *advisor.Engine, rec *metrics.Recorder, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, metrics: rec, gatherer: gatherer, logger: logger}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)
		r.Post("/recommendations", s.handleRecommend)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type recommendRequest struct {
	City string `json:"city"`
}

type matchResponse struct {
	Query      string `json:"query"`
	Found      bool   `json:"found"`
	Candidate  string `json:"candidate,omitempty"`
	Similarity int    `json:"similarity"`
}

type recommendResponse struct {
	matchResponse
	PredictedScore float64               `json:"predictedScore"`
	Label          advisor.Label         `json:"label"`
	Narrative      string                `json:"narrative"`
	Features       advisor.FeatureVector `json:"features"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cities": s.engine.Catalog().Len(),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("city")
	match, err := s.engine.Resolve(query)
	s.metrics.ObserveResolution(match, err)
	if errors.Is(err, advisor.ErrEmptyQuery) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "city is required"})
		return
	}
	if err != nil {
		s.logger.Error("resolve failed", zap.String("query", query), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, toMatchResponse(match))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	start := time.Now()
	outcomes, err := s.engine.RecommendAll(r.Context(), []string{req.City}, nil)
	if err != nil || len(outcomes) != 1 {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
		return
	}
	o := outcomes[0]
	s.metrics.ObserveRecommendation(o, time.Since(start))

	switch {
	case o.Err == nil:
		rec := o.Recommendation
		writeJSON(w, http.StatusOK, recommendResponse{
			matchResponse:  toMatchResponse(o.Match),
			PredictedScore: rec.PredictedScore,
			Label:          rec.Label,
			Narrative:      rec.Narrative(),
			Features:       rec.Features,
		})
	case errors.Is(o.Err, advisor.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "city is required"})
	case errors.Is(o.Err, advisor.ErrNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, toMatchResponse(o.Match))
	case errors.Is(o.Err, advisor.ErrPredictionFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: o.PublicError()})
	default:
		s.logger.Error("recommend failed", zap.String("query", req.City), zap.Error(o.Err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toMatchResponse(m advisor.ResolvedMatch) matchResponse {
	return matchResponse{
		Query:      m.Query,
		Found:      m.Found,
		Candidate:  m.CandidateDisplay,
		Similarity: m.Similarity,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
