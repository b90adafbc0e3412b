// Package server exposes the backtester over HTTP: one JSON endpoint that
// runs a backtest and the static dashboard that consumes it.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rustyeddy/stratlab/analytics"
	"github.com/rustyeddy/stratlab/backtest"
	"github.com/rustyeddy/stratlab/datafeed"
)

// Server handles the backtest API. Each request runs independently: the
// handler builds a fresh config and run, so concurrent requests share nothing
// but the (internally synchronized) data source.
type Server struct {
	feed      datafeed.Source
	staticDir string
	log       *slog.Logger
}

func New(feed datafeed.Source, staticDir string, log *slog.Logger) *Server {
	return &Server{
		feed:      feed,
		staticDir: staticDir,
		log:       log,
	}
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body: "+err.Error())
		return
	}

	start, end, err := req.DateRange()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := req.ToConfig()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.feed.Fetch(r.Context(), req.Ticker, start, end)
	if err != nil {
		if errors.Is(err, datafeed.ErrNoData) {
			writeError(w, http.StatusNotFound, "no price data for "+req.Ticker)
			return
		}
		s.log.Error("fetching bars", "ticker", req.Ticker, "error", err)
		writeError(w, http.StatusBadGateway, "fetching price data failed")
		return
	}

	run, err := backtest.Execute(bars, cfg)
	if err != nil {
		if errors.Is(err, backtest.ErrInsufficientData) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("backtest failed", "ticker", req.Ticker, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	report := analytics.Build(run, req.Ticker)

	s.log.Info("backtest complete",
		"run_id", run.ID,
		"ticker", req.Ticker,
		"bars", len(bars),
		"trades", report.TotalTrades,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	writeJSON(w, report)
}
