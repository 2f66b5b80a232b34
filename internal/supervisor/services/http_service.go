// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend"
)

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// RunStatus reports the pipeline state for /healthz. *pipeline.Engine implements it.
type RunStatus interface {
	Running() bool
	LastReport() *recommend.RunReport
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status     string     `json:"status"`
	Running    bool       `json:"running"`
	LastRunID  string     `json:"last_run_id,omitempty"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastRunAge string     `json:"last_run_age,omitempty"`
}

// NewRouter serves /metrics and /healthz.
func NewRouter(status RunStatus) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok", Running: status.Running()}
		if last := status.LastReport(); last != nil {
			finished := last.FinishedAt
			resp.LastRunID = last.RunID
			resp.LastRunAt = &finished
			resp.LastRunAge = time.Since(finished).Round(time.Second).String()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	return r
}

// HTTPService runs the daemon's HTTP endpoint under supervision.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
	name            string
}

// NewHTTPService listens on addr with the router from NewRouter.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPService(addr string, status RunStatus, logger zerolog.Logger) *HTTPService {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(status),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return NewHTTPServerService(server, 10*time.Second, logger)
}

// NewHTTPServerService wraps an existing server. A non-positive
// shutdownTimeout defaults to 10s.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http").Logger(),
		name:            "http-server",
	}
}

// Serve implements suture.Service. http.ErrServerClosed is not an error.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	h.logger.Info().Msg("http server listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for suture logs.
func (h *HTTPService) String() string {
	return h.name
}
