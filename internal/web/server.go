// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the detection engine over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"privacy-sentinel/internal/config"
	"privacy-sentinel/internal/core"
	"privacy-sentinel/internal/ingest"
	"privacy-sentinel/internal/suppressions"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server holds the dependencies of the HTTP API
type Server struct {
	engine       *core.Engine
	suppressions *suppressions.SuppressionManager
	settings     config.Server
	ingest       ingest.Options
	logger       zerolog.Logger
	startTime    time.Time
}

// Option configures the Server
type Option func(*Server)

// WithSuppressions applies a suppression manager to every scan
func WithSuppressions(sm *suppressions.SuppressionManager) Option {
	return func(s *Server) { s.suppressions = sm }
}

// WithIngestOptions sets the limits for uploaded documents
func WithIngestOptions(opts ingest.Options) Option {
	return func(s *Server) { s.ingest = opts }
}

// WithLogger sets the request and error logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer builds a Server around engine. Zero settings fall back to the
// built-in defaults.
func NewServer(engine *core.Engine, settings config.Server, opts ...Option) *Server {
	defaults := config.Default().Server
	if settings.MaxBodyBytes <= 0 {
		settings.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if settings.ReadTimeout <= 0 {
		settings.ReadTimeout = defaults.ReadTimeout
	}
	if settings.WriteTimeout <= 0 {
		settings.WriteTimeout = defaults.WriteTimeout
	}
	if settings.Address == "" {
		settings.Address = defaults.Address
	}
	if engine == nil {
		engine = core.NewEngine()
	}

	s := &Server{
		engine:    engine,
		settings:  settings,
		logger:    zerolog.Nop(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router with middleware and all API routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.settings.WriteTimeout))
		r.Use(s.limitBody)

		r.Post("/detect", s.handleDetect)
		r.Post("/summarize", s.handleSummarize)
		r.Post("/render", s.handleRender)
		r.Post("/scan", s.handleScan)
		r.Get("/formats", s.handleFormats)
		r.Get("/categories", s.handleCategories)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// HTTPServer returns an http.Server for addr with the configured timeouts
func (s *Server) HTTPServer(addr string) *http.Server {
	if addr == "" {
		addr = s.settings.Address
	}
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.settings.ReadTimeout,
		WriteTimeout:      s.settings.WriteTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := s.HTTPServer(addr)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("http api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// limitBody caps every request body at MaxBodyBytes
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request. Bodies are never logged.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
