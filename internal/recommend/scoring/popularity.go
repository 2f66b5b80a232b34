// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package scoring

import (
	"context"
	"sync"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Popularity scores a candidate by its item's historical purchase count,
// normalized to [0, 1] by the most purchased item. The customer is ignored,
// which makes it the non-personalized baseline every other scorer should beat.
type Popularity struct {
	mu       sync.RWMutex
	counts   map[int64]int
	maxCount int
}

// NewPopularity creates an unprepared popularity scorer.
func NewPopularity() *Popularity {
	return &Popularity{counts: make(map[int64]int)}
}

// Name returns "popularity".
func (p *Popularity) Name() string {
	return "popularity"
}

// Prepare loads item counts from the historical window.
func (p *Popularity) Prepare(ctx context.Context, snap *recommend.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	counts := make(map[int64]int, len(snap.Historical.ItemCounts))
	maxCount := 0
	for id, n := range snap.Historical.ItemCounts {
		counts[id] = n
		maxCount = max(maxCount, n)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = counts
	p.maxCount = maxCount
	return nil
}

// Score returns the normalized popularity of the candidate item.
//
//nolint:gocritic // hugeParam: signature fixed by the Scorer interface
func (p *Popularity) Score(_ context.Context, _ recommend.CustomerFeatureVector, c recommend.Candidate) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.maxCount == 0 {
		return 0, nil
	}
	return float64(p.counts[c.ItemID]) / float64(p.maxCount), nil
}
