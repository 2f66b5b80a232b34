// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/recommend"
)

// ErrScheduleExhausted is returned by Serve when the schedule has no future
// activation, such as "0 0 30 2 *". It wraps suture.ErrDoNotRestart.
var ErrScheduleExhausted = errors.New("schedule has no future activation")

// Job is one scheduled batch run, including writing its artifacts.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// PipelineService runs a Job on a cron schedule under supervision.
// Run failures are logged and do not restart the service.
type PipelineService struct {
	job        Job
	schedule   cron.Schedule
	runOnStart bool
	logger     zerolog.Logger
	name       string

	// now is replaced in tests.
	now func() time.Time
}

// ParseSchedule parses a standard five-field cron expression or a
// descriptor such as "@daily".
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

// NewPipelineService creates the scheduled pipeline service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipelineService(job Job, schedule cron.Schedule, runOnStart bool, logger zerolog.Logger) *PipelineService {
	return &PipelineService{
		job:        job,
		schedule:   schedule,
		runOnStart: runOnStart,
		logger:     logger.With().Str("service", "pipeline").Logger(),
		name:       "pipeline-service",
		now:        time.Now,
	}
}

// Serve implements suture.Service.
func (s *PipelineService) Serve(ctx context.Context) error {
	s.logger.Info().Bool("run_on_start", s.runOnStart).Msg("pipeline service starting")

	if s.runOnStart {
		s.run(ctx, "startup")
	}

	for {
		next := s.schedule.Next(s.now())
		if next.IsZero() {
			s.logger.Error().Msg("schedule never fires again, stopping pipeline service")
			return fmt.Errorf("%w: %w", ErrScheduleExhausted, suture.ErrDoNotRestart)
		}
		s.logger.Info().Time("next_run", next).Msg("next run scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("pipeline service shutting down")
			return ctx.Err()
		case <-timer.C:
			s.run(ctx, "schedule")
		}
	}
}

func (s *PipelineService) run(ctx context.Context, trigger string) {
	ctx, runID := logging.ContextWithNewRunID(ctx)
	log := s.logger.With().Str("run_id", runID).Str("trigger", trigger).Logger()

	start := time.Now()
	err := s.job.Run(ctx)
	switch {
	case errors.Is(err, recommend.ErrRunInProgress):
		log.Warn().Msg("previous run still active, skipping")
	case err != nil && ctx.Err() != nil:
		log.Warn().Err(err).Msg("run interrupted by shutdown")
	case err != nil:
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("scheduled run failed")
	default:
		log.Info().Dur("duration", time.Since(start)).Msg("scheduled run finished")
	}
}

// String returns the service name for logging.
func (s *PipelineService) String() string {
	return s.name
}
