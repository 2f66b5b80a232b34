// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/config"
	"github.com/tomtom215/shelfcast/internal/database"
	"github.com/tomtom215/shelfcast/internal/events"
	"github.com/tomtom215/shelfcast/internal/export"
	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend/pipeline"
	"github.com/tomtom215/shelfcast/internal/recommend/scoring"
	"github.com/tomtom215/shelfcast/internal/recommend/storage"
)

// Artifact file names inside output.dir.
const (
	reportFile      = "report.json"
	submissionFile  = "submission.json"
	groundTruthFile = "groundtruth.json"
)

// app holds the components wired from the configuration.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	db        *database.DB
	engine    *pipeline.Engine
	history   *storage.RunStore
	publisher *events.Publisher
	pusher    *metrics.Pusher
}

// newApp opens every configured component. The caller must Close it.
//
//nolint:gocyclo // sequential setup of optional components
func newApp(cfg *config.Config) (_ *app, err error) {
	logger := logging.Logger()
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	rc, err := cfg.Pipeline.Recommend()
	if err != nil {
		return nil, err
	}

	a.db, err = database.New(database.Config{
		Path:         cfg.Source.DuckDBPath,
		Threads:      cfg.Source.Threads,
		MaxMemory:    cfg.Source.MaxMemory,
		Format:       cfg.Source.Format,
		Transactions: cfg.Source.Transactions,
		Items:        cfg.Source.Items,
		Users:        cfg.Source.Users,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a.engine, err = pipeline.NewEngine(rc, logger)
	if err != nil {
		return nil, err
	}
	a.engine.SetDataProvider(a.db)

	scorer, err := newScorer(cfg.Pipeline.Scorer)
	if err != nil {
		return nil, err
	}
	if scorer != nil {
		a.engine.SetScorer(scorer)
	}

	if cfg.History.Enabled {
		a.history, err = storage.Open(storage.Config{Path: cfg.History.Path})
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.engine.SetHistory(a.history, cfg.History.Keep)
	}

	if cfg.Events.Enabled {
		ec := events.DefaultConfig()
		ec.Backend = cfg.Events.Backend
		ec.URL = cfg.Events.URL
		ec.Topic = cfg.Events.Topic
		a.publisher, err = events.NewPublisher(ec, logger)
		if err != nil {
			return nil, err
		}
		a.engine.SetPublisher(a.publisher)
	}

	if cfg.Metrics.PushURL != "" {
		a.pusher = metrics.NewPusher(cfg.Metrics.PushURL, cfg.Metrics.Job, logger)
	}

	logger.Info().
		Str("format", cfg.Source.Format).
		Str("transactions", cfg.Source.Transactions).
		Str("scorer", cfg.Pipeline.Scorer).
		Bool("history", cfg.History.Enabled).
		Bool("events", cfg.Events.Enabled).
		Msg("pipeline configured")
	return a, nil
}

func newScorer(name string) (scoring.Scorer, error) {
	switch name {
	case "popularity":
		return scoring.NewPopularity(), nil
	case "linear":
		l, err := scoring.NewLinear(scoring.DefaultLinearConfig())
		if err != nil {
			return nil, err
		}
		return l, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// runOnce executes one run and writes its artifacts.
func (a *app) runOnce(ctx context.Context) (*pipeline.RunResult, error) {
	result, err := a.engine.Run(ctx)
	if err != nil {
		a.push(ctx, logging.RunIDFromContext(ctx))
		return nil, err
	}
	if err := a.writeArtifacts(ctx, result); err != nil {
		return nil, err
	}
	a.push(ctx, result.Report.RunID)
	return result, nil
}

func (a *app) push(ctx context.Context, runID string) {
	if a.pusher == nil {
		return
	}
	if err := a.pusher.Push(ctx, runID); err != nil {
		a.logger.Warn().Err(err).Msg("failed to push metrics")
	}
}

// writeArtifacts stores the run tables in DuckDB and writes the configured
// files to output.dir.
func (a *app) writeArtifacts(ctx context.Context, result *pipeline.RunResult) error {
	out := a.cfg.Output
	log := a.logger.With().Str("run_id", result.Report.RunID).Str("dir", out.Dir).Logger()

	if err := a.db.WriteFeatures(ctx, result.Features.Vectors); err != nil {
		return err
	}
	if err := a.db.WriteCandidates(ctx, result.Candidates.Flatten()); err != nil {
		return err
	}
	if err := a.db.WriteTrainingFrame(ctx, result.Frame.Rows); err != nil {
		return err
	}

	if out.Parquet {
		for _, table := range []string{database.TableFeatures, database.TableCandidates, database.TableTrainingFrame} {
			if err := a.db.ExportParquet(ctx, table, filepath.Join(out.Dir, table+".parquet")); err != nil {
				return err
			}
		}
	}

	if out.Report {
		if err := export.WriteReport(filepath.Join(out.Dir, reportFile), result.Report); err != nil {
			return err
		}
	}

	if out.Submission && result.Rankings != nil {
		if err := export.WriteSubmission(filepath.Join(out.Dir, submissionFile), export.FromRankings(result.Rankings)); err != nil {
			return err
		}
		truth := export.GroundTruth(result.Snapshot.Holdout)
		if err := export.WriteSubmission(filepath.Join(out.Dir, groundTruthFile), truth); err != nil {
			return err
		}
	}

	log.Info().Bool("parquet", out.Parquet).Bool("report", out.Report).Msg("artifacts written")
	return nil
}

// Close releases every opened component.
func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing event publisher")
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing run history")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing database")
		}
	}
}
