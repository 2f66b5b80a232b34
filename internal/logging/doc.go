// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package logging provides the zerolog setup shared by every Shelfcast command.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("source", path).Msg("loading transactions")
//
// Components receive a zerolog.Logger and derive their own child logger:
//
//	log := logging.WithComponent(logger, "candidates")
//
// # Run Correlation
//
// Each pipeline run gets a UUID that is attached to the context and to every
// log line written through Ctx:
//
//	ctx, runID := logging.ContextWithNewRunID(ctx)
//	logging.Ctx(ctx).Info().Msg("run started") // {"run_id":"...","message":"run started"}
//
// # slog Bridge
//
// The supervisor tree reports through sutureslog, which needs a *slog.Logger.
// NewSlogLogger adapts a zerolog.Logger for that purpose.
package logging
