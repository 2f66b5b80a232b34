// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/evaluation"
)

func testReport() *recommend.RunReport {
	start := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	return &recommend.RunReport{
		RunID:        "run-1",
		StartedAt:    start,
		FinishedAt:   start.Add(time.Minute),
		ConfigHash:   "abc",
		Customers:    10,
		Candidates:   120,
		PositiveRate: 0.05,
		Evaluation: []evaluation.Report{{
			K:         10,
			Customers: 10,
			Precision: evaluation.Aggregate{Value: 0.2, Customers: 10},
			Recall:    evaluation.Aggregate{Value: 0.4, Customers: 8},
		}},
	}
}

func TestNewRunCompleted(t *testing.T) {
	e := NewRunCompleted(testReport())

	if e.SchemaVersion != SchemaVersion || e.EventID == "" {
		t.Errorf("event header = %d/%q", e.SchemaVersion, e.EventID)
	}
	if e.RunID != "run-1" || e.Customers != 10 || e.Candidates != 120 {
		t.Errorf("event = %+v", e)
	}
	if got := e.Metrics["recall@10"]; got != 0.4 {
		t.Errorf("recall@10 = %v, want 0.4", got)
	}
	if len(e.Metrics) != 5 {
		t.Errorf("metrics = %d entries, want 5", len(e.Metrics))
	}

	noEval := testReport()
	noEval.Evaluation = nil
	if e := NewRunCompleted(noEval); e.Metrics != nil {
		t.Errorf("metrics without evaluation = %v, want nil", e.Metrics)
	}
}

func TestRunCompleted_Marshal(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*RunCompleted)
		wantError bool
	}{
		{name: "valid", modify: nil, wantError: false},
		{name: "missing run id", modify: func(e *RunCompleted) { e.RunID = "" }, wantError: true},
		{name: "missing event id", modify: func(e *RunCompleted) { e.EventID = "" }, wantError: true},
		{name: "missing timestamp", modify: func(e *RunCompleted) { e.Timestamp = time.Time{} }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewRunCompleted(testReport())
			if tt.modify != nil {
				tt.modify(e)
			}
			data, err := e.Marshal()
			if (err != nil) != tt.wantError {
				t.Fatalf("Marshal() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil {
				return
			}
			got, err := DecodeRunCompleted(data)
			if err != nil {
				t.Fatalf("DecodeRunCompleted() error = %v", err)
			}
			if got.RunID != e.RunID || got.Metrics["precision@10"] != 0.2 {
				t.Errorf("decoded = %+v", got)
			}
		})
	}
}

func TestDecodeRunCompleted_RejectsNewerSchema(t *testing.T) {
	if _, err := DecodeRunCompleted([]byte(`{"schema_version": 99, "run_id": "x"}`)); err == nil {
		t.Error("DecodeRunCompleted() with newer schema = nil error")
	}
	if _, err := DecodeRunCompleted([]byte(`{`)); err == nil {
		t.Error("DecodeRunCompleted() with bad json = nil error")
	}
}

func TestNewPublisher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "unknown backend", modify: func(c *Config) { c.Backend = "kafka" }},
		{name: "empty topic", modify: func(c *Config) { c.Topic = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if _, err := NewPublisher(cfg, zerolog.New(io.Discard)); err == nil {
				t.Error("NewPublisher() = nil error, want error")
			}
		})
	}
}

func TestPublisher_GoChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendGoChannel
	p, err := NewPublisher(cfg, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer func() { _ = p.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := p.Subscriber().Subscribe(ctx, p.Topic())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success"))
	if err := p.PublishRunCompleted(ctx, testReport()); err != nil {
		t.Fatalf("PublishRunCompleted() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		if got := msg.Metadata.Get("run_id"); got != "run-1" {
			t.Errorf("run_id metadata = %q, want run-1", got)
		}
		e, err := DecodeRunCompleted(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeRunCompleted() error = %v", err)
		}
		if e.EventID != msg.UUID {
			t.Errorf("message uuid %q does not match event id %q", msg.UUID, e.EventID)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}

	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success")) - before; got != 1 {
		t.Errorf("published success increased by %v, want 1", got)
	}
}

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.calls++
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublisher_CircuitOpens(t *testing.T) {
	broker := &failingPublisher{}
	cfg := DefaultConfig()
	p := NewPublisherFrom(broker, cfg, zerolog.New(io.Discard))

	for i := 0; i < int(cfg.FailureThreshold); i++ {
		err := p.PublishRunCompleted(context.Background(), testReport())
		if err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("publish %d error = %v, want broker error", i, err)
		}
	}

	if err := p.PublishRunCompleted(context.Background(), testReport()); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("PublishRunCompleted() after failures = %v, want ErrCircuitOpen", err)
	}
	if broker.calls != int(cfg.FailureThreshold) {
		t.Errorf("broker called %d times, want %d", broker.calls, cfg.FailureThreshold)
	}
}

func TestPublisher_Closed(t *testing.T) {
	p := NewPublisherFrom(&failingPublisher{}, DefaultConfig(), zerolog.New(io.Discard))
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := p.PublishRunCompleted(context.Background(), testReport()); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("PublishRunCompleted() after Close = %v, want ErrPublisherClosed", err)
	}
}
