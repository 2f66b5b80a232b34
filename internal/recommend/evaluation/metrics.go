// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package evaluation

import (
	"errors"
	"math"
)

// ErrMetricUndefined marks a per-customer metric with no defined value.
// Aggregation drops such values; it never reaches callers of Evaluate.
var ErrMetricUndefined = errors.New("metric undefined")

// Record is one customer's ranked list and holdout ground truth.
type Record struct {
	CustomerID  int64
	Ranked      []int64
	GroundTruth map[int64]struct{}
}

// NewRecord builds a Record from a ground-truth slice.
func NewRecord(customerID int64, ranked, truth []int64) Record {
	gt := make(map[int64]struct{}, len(truth))
	for _, id := range truth {
		gt[id] = struct{}{}
	}
	return Record{CustomerID: customerID, Ranked: ranked, GroundTruth: gt}
}

// topK returns ranked[:k] with duplicate items removed, so a repeated hit
// is counted once.
func topK(ranked []int64, k int) []int64 {
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	seen := make(map[int64]struct{}, len(ranked))
	out := make([]int64, 0, len(ranked))
	for _, id := range ranked {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func hits(top []int64, gt map[int64]struct{}) int {
	n := 0
	for _, id := range top {
		if _, ok := gt[id]; ok {
			n++
		}
	}
	return n
}

// PrecisionAt returns |ranked[:k] ∩ gt| / k. It is always defined; a short
// list is not rescaled.
func PrecisionAt(r Record, k int) float64 {
	return float64(hits(topK(r.Ranked, k), r.GroundTruth)) / float64(k)
}

// RecallAt returns |ranked[:k] ∩ gt| / |gt|.
func RecallAt(r Record, k int) (float64, error) {
	if len(r.GroundTruth) == 0 {
		return 0, ErrMetricUndefined
	}
	return float64(hits(topK(r.Ranked, k), r.GroundTruth)) / float64(len(r.GroundTruth)), nil
}

// F1At returns the harmonic mean of precision and recall, 0 when either is 0.
func F1At(r Record, k int) (float64, error) {
	recall, err := RecallAt(r, k)
	if err != nil {
		return 0, err
	}
	precision := PrecisionAt(r, k)
	if precision == 0 || recall == 0 {
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// NDCGAt returns DCG over ranked[:k] with gain 1/log2(i+1) at 1-indexed rank i,
// normalized by the ideal DCG over min(k, |gt|) positions.
func NDCGAt(r Record, k int) (float64, error) {
	if len(r.GroundTruth) == 0 {
		return 0, ErrMetricUndefined
	}
	var dcg float64
	for i, id := range topK(r.Ranked, k) {
		if _, ok := r.GroundTruth[id]; ok {
			dcg += 1 / math.Log2(float64(i+2))
		}
	}
	var idcg float64
	for i := 0; i < min(k, len(r.GroundTruth)); i++ {
		idcg += 1 / math.Log2(float64(i+2))
	}
	return dcg / idcg, nil
}

// AveragePrecisionAt returns the mean of precision@i over hit positions i,
// normalized by min(k, |gt|).
func AveragePrecisionAt(r Record, k int) (float64, error) {
	if len(r.GroundTruth) == 0 {
		return 0, ErrMetricUndefined
	}
	var sum float64
	found := 0
	for i, id := range topK(r.Ranked, k) {
		if _, ok := r.GroundTruth[id]; ok {
			found++
			sum += float64(found) / float64(i+1)
		}
	}
	return sum / float64(min(k, len(r.GroundTruth))), nil
}
