// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingService counts starts and fails the first failures starts.
type countingService struct {
	starts   atomic.Int32
	failures int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewSupervisorTree(t *testing.T) {
	t.Run("applies defaults for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		want := DefaultTreeConfig()
		if tree.config != want {
			t.Errorf("config = %+v, want %+v", tree.config, want)
		}
		if tree.Root() == nil {
			t.Error("Root() = nil")
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{FailureBackoff: time.Second, ShutdownTimeout: 2 * time.Second})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if tree.config.FailureBackoff != time.Second || tree.config.ShutdownTimeout != 2*time.Second {
			t.Errorf("config = %+v", tree.config)
		}
	})
}

func TestSupervisorTree_ServesLayers(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	pipelineSvc := &countingService{}
	apiSvc := &countingService{}
	tree.AddPipelineService(pipelineSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return pipelineSvc.starts.Load() == 1 && apiSvc.starts.Load() == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	flaky := &countingService{failures: 2}
	steady := &countingService{}
	tree.AddPipelineService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.starts.Load() >= 3 })
	if got := steady.starts.Load(); got != 1 {
		t.Errorf("api service started %d times, want 1", got)
	}

	cancel()
	<-done
}
