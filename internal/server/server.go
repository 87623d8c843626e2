// Package server exposes the search engine over HTTP and publishes
// Prometheus metrics about query traffic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"scour/config"
	"scour/internal/usecase"
)

// Server serves the query API against a loaded search engine.
type Server struct {
	engine  *usecase.SearchUseCase
	cfg     config.ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// New wires the HTTP layer around a search engine. A nil logger falls back
// to slog.Default.
func New(cfg *config.Config, engine *usecase.SearchUseCase, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  engine,
		cfg:     cfg.Server,
		metrics: NewMetrics(),
		logger:  logger,
	}
	if stats, err := engine.Stats(); err == nil {
		s.metrics.DocsIndexedTotal.Add(float64(stats.TotalDocuments))
	}
	return s
}

// Handler builds the full route table.
//
//	GET  /search     ranked search (q, top_k, spell_check, expansion)
//	GET  /suggest    query completions (q, max)
//	POST /validate   validation report for a raw query
//	GET  /spellcheck spelling corrections only
//	GET  /expand     expansion terms only
//	POST /batch      CSV of queries, executed concurrently
//	GET  /stats      corpus statistics
//	GET  /healthz    liveness and index state
//	GET  /metrics    Prometheus scrape endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /suggest", s.handleSuggest)
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("GET /spellcheck", s.handleSpellCheck)
	mux.HandleFunc("GET /expand", s.handleExpand)
	mux.HandleFunc("POST /batch", s.handleBatch)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.instrument(mux)
}

// instrument records request count, latency, and an access log entry for
// every request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		s.metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method,
			r.URL.Path,
			strconv.Itoa(sw.status),
		).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(
			r.Method,
			r.URL.Path,
		).Observe(duration.Seconds())

		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", duration,
		)
	})
}

// Run serves until ctx is canceled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		s.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(s.cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	<-shutdownDone
	s.logger.Info("http server stopped")
	return nil
}

// statusWriter captures the response status code for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}
