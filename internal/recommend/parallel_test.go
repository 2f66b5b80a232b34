// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEachBatch(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		workers int
	}{
		{name: "empty", n: 0, workers: 4},
		{name: "single worker", n: 10, workers: 1},
		{name: "more workers than items", n: 3, workers: 8},
		{name: "uneven batches", n: 17, workers: 4},
		{name: "non-positive workers", n: 5, workers: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]int, tt.n)
			err := ForEachBatch(context.Background(), tt.n, tt.workers, func(_ context.Context, i int) error {
				out[i]++
				return nil
			})
			if err != nil {
				t.Fatalf("ForEachBatch() error = %v", err)
			}
			for i, v := range out {
				if v != 1 {
					t.Errorf("slot %d visited %d times, want 1", i, v)
				}
			}
		})
	}
}

func TestForEachBatch_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int64

	err := ForEachBatch(context.Background(), 1000, 1, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ForEachBatch() error = %v, want boom", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("fn called %d times, want 4", got)
	}
}

func TestForEachBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForEachBatch(ctx, 10, 2, func(context.Context, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ForEachBatch() error = %v, want context.Canceled", err)
	}
}
