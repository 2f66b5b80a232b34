// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package evaluation

import (
	"errors"
	"fmt"
)

// Aggregate is the mean of one metric over the customers for which it is defined.
type Aggregate struct {
	Value     float64 `json:"value"`
	Customers int     `json:"customers"`
}

// mean accumulates defined values.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64, err error) {
	if errors.Is(err, ErrMetricUndefined) {
		return
	}
	m.sum += v
	m.n++
}

func (m *mean) aggregate() Aggregate {
	if m.n == 0 {
		return Aggregate{}
	}
	return Aggregate{Value: m.sum / float64(m.n), Customers: m.n}
}

// Report holds the aggregated metrics at one cutoff.
type Report struct {
	K         int       `json:"k"`
	Customers int       `json:"customers"`
	Precision Aggregate `json:"precision"`
	Recall    Aggregate `json:"recall"`
	NDCG      Aggregate `json:"ndcg"`
	F1        Aggregate `json:"f1"`
	MAP       Aggregate `json:"map"`
}

// Metrics returns the aggregates keyed by metric name.
//
//nolint:gocritic // value receiver keeps reports immutable
func (r Report) Metrics() map[string]Aggregate {
	return map[string]Aggregate{
		"precision": r.Precision,
		"recall":    r.Recall,
		"ndcg":      r.NDCG,
		"f1":        r.F1,
		"map":       r.MAP,
	}
}

// String renders the report on one line.
//
//nolint:gocritic // value receiver keeps reports immutable
func (r Report) String() string {
	return fmt.Sprintf("K=%d customers=%d P=%.4f R=%.4f (n=%d) NDCG=%.4f (n=%d) F1=%.4f (n=%d) MAP=%.4f (n=%d)",
		r.K, r.Customers, r.Precision.Value,
		r.Recall.Value, r.Recall.Customers,
		r.NDCG.Value, r.NDCG.Customers,
		r.F1.Value, r.F1.Customers,
		r.MAP.Value, r.MAP.Customers)
}

// Evaluate aggregates metrics at cutoff k over records. Records with empty
// ground truth count toward precision only. k must be positive.
func Evaluate(records []Record, k int) Report {
	var precision, recall, ndcg, f1, ap mean
	for _, r := range records {
		precision.add(PrecisionAt(r, k), nil)
		recall.add(RecallAt(r, k))
		ndcg.add(NDCGAt(r, k))
		f1.add(F1At(r, k))
		ap.add(AveragePrecisionAt(r, k))
	}
	return Report{
		K:         k,
		Customers: len(records),
		Precision: precision.aggregate(),
		Recall:    recall.aggregate(),
		NDCG:      ndcg.aggregate(),
		F1:        f1.aggregate(),
		MAP:       ap.aggregate(),
	}
}

// EvaluateAll evaluates records at every cutoff in ks, in the given order.
func EvaluateAll(records []Record, ks []int) []Report {
	out := make([]Report, 0, len(ks))
	for _, k := range ks {
		out = append(out, Evaluate(records, k))
	}
	return out
}
