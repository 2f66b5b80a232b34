// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	loggerKey contextKey = "logger"
)

// GenerateRunID returns a new random run identifier.
func GenerateRunID() string {
	return uuid.New().String()
}

// ContextWithRunID attaches a run ID to ctx.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// ContextWithNewRunID attaches a freshly generated run ID to ctx and returns both.
func ContextWithNewRunID(ctx context.Context) (context.Context, string) {
	id := GenerateRunID()
	return ContextWithRunID(ctx, id), id
}

// RunIDFromContext returns the run ID stored in ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithLogger stores a logger in ctx.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger stored in ctx, or the global logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
			return l
		}
	}
	return Logger()
}

// Ctx returns a logger for ctx with the run ID attached when present.
//
//	logging.Ctx(ctx).Info().Int("customers", n).Msg("features computed")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := LoggerFromContext(ctx)
	if id := RunIDFromContext(ctx); id != "" {
		l = l.With().Str("run_id", id).Logger()
	}
	return &l
}

// WithComponent returns a child of logger tagged with component.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
