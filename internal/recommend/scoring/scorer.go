// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package scoring defines the contract for the external relevance model and
// ships two deterministic baselines used for evaluation smoke runs.
//
// A Scorer receives the customer's feature vector and one candidate pair and
// returns a relevance score. Higher scores rank first. Scorers that need run
// data before scoring also implement Preparer.
package scoring

import (
	"cmp"
	"context"
	"slices"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Scorer is the plug-in relevance model.
type Scorer interface {
	// Name returns the scorer identifier used in reports.
	Name() string

	// Score returns the relevance of c for the customer described by features.
	// It must be safe for concurrent use.
	Score(ctx context.Context, features recommend.CustomerFeatureVector, c recommend.Candidate) (float64, error)
}

// Preparer is implemented by scorers that read the run snapshot before scoring.
// Prepare only ever sees data the engine also used for features.
type Preparer interface {
	Prepare(ctx context.Context, snap *recommend.Snapshot) error
}

// TopK sorts scored by descending score, ties broken by ascending item id,
// and returns at most k entries. The input slice is reordered in place.
func TopK(scored []recommend.ScoredCandidate, k int) []recommend.ScoredCandidate {
	slices.SortFunc(scored, func(a, b recommend.ScoredCandidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ItemID, b.ItemID)
	})
	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// ItemIDs extracts item ids in order.
func ItemIDs(scored []recommend.ScoredCandidate) []int64 {
	out := make([]int64, len(scored))
	for i := range scored {
		out[i] = scored[i].ItemID
	}
	return out
}
