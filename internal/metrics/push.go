// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrPushCircuitOpen is returned when the Pushgateway breaker is open.
var ErrPushCircuitOpen = errors.New("pushgateway circuit breaker open")

// Pusher sends the default registry to a Prometheus Pushgateway after each
// batch run. Pushes go through a circuit breaker so an unreachable gateway
// costs one timeout, not one per run.
type Pusher struct {
	pusher *push.Pusher
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger zerolog.Logger
}

// NewPusher creates a pusher for the gateway at url under job.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPusher(url, job string, logger zerolog.Logger) *Pusher {
	log := logger.With().Str("component", "metrics_push").Logger()

	settings := gobreaker.Settings{
		Name:        "pushgateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Pusher{
		pusher: push.New(url, job).Gatherer(prometheus.DefaultGatherer),
		cb:     gobreaker.NewCircuitBreaker[struct{}](settings),
		logger: log,
	}
}

// Push replaces the job's metric group on the gateway with the current values.
func (p *Pusher) Push(ctx context.Context, runID string) error {
	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.pusher.PushContext(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPushCircuitOpen
	}
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	p.logger.Debug().Str("run_id", runID).Msg("metrics pushed")
	return nil
}
