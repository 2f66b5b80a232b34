// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Publisher backends.
const (
	BackendNATS      = "nats"
	BackendGoChannel = "gochannel"
)

var (
	// ErrCircuitOpen is returned while the publish breaker is open.
	ErrCircuitOpen = errors.New("event publisher circuit breaker open")

	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("publisher is closed")
)

// Config configures the run event publisher.
type Config struct {
	Backend string
	URL     string
	Topic   string

	// MaxReconnects is passed to the NATS client; -1 retries forever.
	MaxReconnects int
	ReconnectWait time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultConfig returns production defaults for the NATS backend.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendNATS,
		URL:              "nats://127.0.0.1:4222",
		Topic:            "shelfcast.runs.completed",
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		FailureThreshold: 3,
		BreakerTimeout:   time.Minute,
	}
}

// Publisher publishes RunCompleted events with circuit breaker protection.
type Publisher struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	cb         *gobreaker.CircuitBreaker[struct{}]
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects the configured backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisher(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	if cfg.Topic == "" {
		return nil, errors.New("events: topic is required")
	}
	log := logger.With().Str("component", "events").Str("backend", cfg.Backend).Logger()
	wmLogger := NewLoggerAdapter(log)

	switch cfg.Backend {
	case BackendGoChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, wmLogger)
		p := newPublisher(ch, cfg, log)
		p.subscriber = ch
		return p, nil

	case BackendNATS:
		natsOpts := []natsgo.Option{
			natsgo.Name("shelfcast"),
			natsgo.RetryOnFailedConnect(true),
			natsgo.MaxReconnects(cfg.MaxReconnects),
			natsgo.ReconnectWait(cfg.ReconnectWait),
			natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
				if err != nil {
					log.Warn().Err(err).Msg("NATS disconnected")
				}
			}),
			natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
				log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			}),
		}

		pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
			URL:         cfg.URL,
			NatsOptions: natsOpts,
			Marshaler:   &wmNats.NATSMarshaler{},
			JetStream:   wmNats.JetStreamConfig{Disabled: true},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("create NATS publisher: %w", err)
		}
		return newPublisher(pub, cfg, log), nil

	default:
		return nil, fmt.Errorf("events: unknown backend %q", cfg.Backend)
	}
}

// NewPublisherFrom wraps an existing Watermill publisher.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisherFrom(pub message.Publisher, cfg Config, logger zerolog.Logger) *Publisher {
	return newPublisher(pub, cfg, logger.With().Str("component", "events").Logger())
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newPublisher(pub message.Publisher, cfg Config, log zerolog.Logger) *Publisher {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	settings := gobreaker.Settings{
		Name:        "run-events",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Publisher{
		publisher: pub,
		topic:     cfg.Topic,
		cb:        gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:    log,
	}
}

// Subscriber returns the in-process subscriber of the gochannel backend, nil otherwise.
func (p *Publisher) Subscriber() message.Subscriber {
	return p.subscriber
}

// Topic returns the topic events are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishRunCompleted publishes the event for a finished run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, r *recommend.RunReport) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	event := NewRunCompleted(r)
	data, err := event.Marshal()
	if err != nil {
		metrics.EventsPublished.WithLabelValues("failure").Inc()
		return err
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("run_id", event.RunID)
	msg.Metadata.Set("schema_version", fmt.Sprint(SchemaVersion))
	msg.SetContext(ctx)

	_, err = p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(p.topic, msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EventsPublished.WithLabelValues("circuit_open").Inc()
		return ErrCircuitOpen
	case err != nil:
		metrics.EventsPublished.WithLabelValues("failure").Inc()
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}

	metrics.EventsPublished.WithLabelValues("success").Inc()
	p.logger.Debug().Str("run_id", event.RunID).Str("event_id", event.EventID).Msg("run event published")
	return nil
}

// Close shuts down the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
