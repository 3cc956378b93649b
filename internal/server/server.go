// Package server exposes a read-only view of the bot over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"macroalloc/internal/state"
	"macroalloc/internal/strategy"
)

type strategyResponse struct {
	Assets   []string `json:"assets"`
	Interval string   `json:"interval"`
	Data     []string `json:"data"`
}

type allocationResponse struct {
	Allocation  map[string]float64 `json:"allocation"`
	Reason      string             `json:"reason"`
	MissingKey  string             `json:"missing_key,omitempty"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
	Evaluations int                `json:"evaluations"`
}

type Server struct {
	strategy strategy.Strategy
	state    *state.Store
	gatherer prometheus.Gatherer
	log      zerolog.Logger
	http     *http.Server
}

func New(addr string, strat strategy.Strategy, store *state.Store, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{
		strategy: strat,
		state:    store,
		gatherer: gatherer,
		log:      log.With().Str("component", "server").Logger(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/strategy", s.handleStrategy)
	r.Get("/allocation", s.handleAllocation)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("status server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStrategy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, strategyResponse{
		Assets:   s.strategy.Assets(),
		Interval: s.strategy.Interval(),
		Data:     s.strategy.DataKeys(),
	})
}

func (s *Server) handleAllocation(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.state.Snapshot()
	if snapshot.LastEvaluation == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no evaluation yet"})
		return
	}
	eval := snapshot.LastEvaluation
	writeJSON(w, http.StatusOK, allocationResponse{
		Allocation:  eval.Allocation,
		Reason:      eval.Reason,
		MissingKey:  eval.MissingKey,
		EvaluatedAt: eval.At,
		Evaluations: snapshot.Evaluations,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
