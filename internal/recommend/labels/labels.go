// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package labels attaches training labels to candidate pairs: a pair is
// positive iff the customer bought the item inside the recent window.
package labels

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/candidates"
	"github.com/tomtom215/shelfcast/internal/recommend/window"
)

// Frame is the labeled training frame, ordered like the candidate set.
type Frame struct {
	Rows      []recommend.LabeledCandidate
	Positives int
}

// PositiveRate returns the share of positive rows, 0 for an empty frame.
func (f *Frame) PositiveRate() float64 {
	if len(f.Rows) == 0 {
		return 0
	}
	return float64(f.Positives) / float64(len(f.Rows))
}

// Assign indexes ds for w and labels every pair in set.
func Assign(ctx context.Context, set *candidates.Set, ds *recommend.Dataset, w recommend.Windows) (*Frame, error) {
	if err := window.Assert(w); err != nil {
		return nil, err
	}
	return AssignSnapshot(ctx, set, recommend.NewSnapshot(ds, w), runtime.NumCPU())
}

// AssignSnapshot labels every pair in set against the snapshot's recent partition.
func AssignSnapshot(ctx context.Context, set *candidates.Set, snap *recommend.Snapshot, workers int) (*Frame, error) {
	if err := window.Assert(snap.Windows); err != nil {
		return nil, err
	}

	offsets := make([]int, len(set.Pools)+1)
	for i, p := range set.Pools {
		offsets[i+1] = offsets[i] + len(p)
	}
	rows := make([]recommend.LabeledCandidate, offsets[len(set.Pools)])
	positives := make([]int, len(set.Pools))

	err := recommend.ForEachBatch(ctx, len(set.Pools), workers, func(_ context.Context, i int) error {
		var bought []int64
		if ri, ok := slices.BinarySearch(snap.Recent.Customers, set.Customers[i]); ok {
			bought = snap.Recent.Items(ri)
		}
		for j, c := range set.Pools[i] {
			row := recommend.LabeledCandidate{Candidate: c}
			if _, hit := slices.BinarySearch(bought, c.ItemID); hit {
				row.Label = 1
				positives[i]++
			}
			rows[offsets[i]+j] = row
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assign labels: %w", err)
	}

	f := &Frame{Rows: rows}
	for _, n := range positives {
		f.Positives += n
	}
	return f, nil
}
