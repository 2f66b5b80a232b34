// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/recommend"
)

// mockJob records calls and the run ids it was given.
type mockJob struct {
	mu     sync.Mutex
	runIDs []string
	err    error
}

func (m *mockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runIDs = append(m.runIDs, logging.RunIDFromContext(ctx))
	return m.err
}

func (m *mockJob) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runIDs)
}

// everyInterval fires at a fixed interval after the given time.
type everyInterval time.Duration

func (e everyInterval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// neverFires mimics cron schedules with no activation, for which Next returns the zero time.
type neverFires struct{}

func (neverFires) Next(time.Time) time.Time {
	return time.Time{}
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		spec      string
		wantError bool
	}{
		{spec: "0 3 * * *", wantError: false},
		{spec: "@daily", wantError: false},
		{spec: "*/15 * * * *", wantError: false},
		{spec: "0 3 * *", wantError: true},
		{spec: "not a schedule", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := ParseSchedule(tt.spec)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseSchedule(%q) error = %v, wantError %v", tt.spec, err, tt.wantError)
			}
		})
	}
}

func TestParseSchedule_Next(t *testing.T) {
	s, err := ParseSchedule("0 3 * * *")
	if err != nil {
		t.Fatal(err)
	}
	from := time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC)
	want := time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC)
	if got := s.Next(from); !got.Equal(want) {
		t.Errorf("Next(%v) = %v, want %v", from, got, want)
	}
}

func TestPipelineService_String(t *testing.T) {
	svc := NewPipelineService(&mockJob{}, everyInterval(time.Hour), false, zerolog.Nop())
	if got := svc.String(); got != "pipeline-service" {
		t.Errorf("String() = %q, want pipeline-service", got)
	}
}

func TestPipelineService_RunOnStart(t *testing.T) {
	job := &mockJob{}
	svc := NewPipelineService(job, everyInterval(time.Hour), true, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}
	if got := job.calls(); got != 1 {
		t.Errorf("job ran %d times, want 1", got)
	}
	if job.runIDs[0] == "" {
		t.Error("job context has no run id")
	}
}

func TestPipelineService_NoRunOnStart(t *testing.T) {
	job := &mockJob{}
	svc := NewPipelineService(job, everyInterval(time.Hour), false, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := job.calls(); got != 0 {
		t.Errorf("job ran %d times, want 0", got)
	}
}

func TestPipelineService_Schedule(t *testing.T) {
	job := &mockJob{}
	svc := NewPipelineService(job, everyInterval(20*time.Millisecond), false, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := job.calls(); got < 2 {
		t.Errorf("job ran %d times, want at least 2", got)
	}
	seen := make(map[string]bool)
	for _, id := range job.runIDs {
		if seen[id] {
			t.Errorf("run id %q reused", id)
		}
		seen[id] = true
	}
}

func TestPipelineService_JobErrorsDoNotStopService(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "run failure", err: errors.New("duckdb: file not found")},
		{name: "run in progress", err: recommend.ErrRunInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &mockJob{err: tt.err}
			svc := NewPipelineService(job, everyInterval(20*time.Millisecond), true, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
			defer cancel()

			if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
			}
			if got := job.calls(); got < 2 {
				t.Errorf("job ran %d times, want at least 2", got)
			}
		})
	}
}

func TestPipelineService_ScheduleExhausted(t *testing.T) {
	// February 30th never occurs.
	impossible, err := ParseSchedule("0 0 30 2 *")
	if err != nil {
		t.Fatalf("ParseSchedule() error = %v", err)
	}

	tests := []struct {
		name     string
		schedule interface{ Next(time.Time) time.Time }
	}{
		{name: "impossible cron date", schedule: impossible},
		{name: "zero next time", schedule: neverFires{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &mockJob{}
			svc := NewPipelineService(job, tt.schedule, true, zerolog.Nop())

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			err := svc.Serve(ctx)
			if !errors.Is(err, ErrScheduleExhausted) || !errors.Is(err, suture.ErrDoNotRestart) {
				t.Fatalf("Serve() error = %v, want ErrScheduleExhausted wrapping ErrDoNotRestart", err)
			}
			if ctx.Err() != nil {
				t.Error("Serve() waited for the context instead of returning")
			}
			if got := job.calls(); got != 1 {
				t.Errorf("job ran %d times, want only the startup run", got)
			}
		})
	}
}
