// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package evaluation

import (
	"strings"
	"testing"
)

func TestEvaluate_EmptyGroundTruthDenominators(t *testing.T) {
	records := []Record{
		NewRecord(1, []int64{itemA, itemB}, nil),
		NewRecord(2, []int64{itemA, itemB}, []int64{itemA}),
	}

	rep := Evaluate(records, 2)

	if rep.Customers != 2 {
		t.Errorf("Customers = %d, want 2", rep.Customers)
	}
	if rep.Precision.Customers != 2 || !almostEqual(rep.Precision.Value, 0.25) {
		t.Errorf("Precision = %+v, want 0.25 over 2", rep.Precision)
	}
	if rep.Recall.Customers != 1 || !almostEqual(rep.Recall.Value, 1.0) {
		t.Errorf("Recall = %+v, want 1.0 over 1", rep.Recall)
	}
	if rep.F1.Customers != 1 || !almostEqual(rep.F1.Value, 2.0/3.0) {
		t.Errorf("F1 = %+v, want 0.667 over 1", rep.F1)
	}
	if rep.NDCG.Customers != 1 || !almostEqual(rep.NDCG.Value, 1.0) {
		t.Errorf("NDCG = %+v, want 1.0 over 1", rep.NDCG)
	}
}

func TestEvaluate_NoRecords(t *testing.T) {
	rep := Evaluate(nil, 10)
	if rep.Customers != 0 || rep.Precision.Customers != 0 || rep.Precision.Value != 0 {
		t.Errorf("Evaluate(nil) = %+v, want zero report", rep)
	}
}

func TestEvaluateAll(t *testing.T) {
	records := []Record{NewRecord(1, []int64{itemA, itemB, itemC, itemD, itemE}, []int64{itemB, itemD})}

	reports := EvaluateAll(records, []int{1, 5})
	if len(reports) != 2 {
		t.Fatalf("len(reports) = %d, want 2", len(reports))
	}

	tests := []struct {
		k             int
		wantPrecision float64
		wantRecall    float64
	}{
		{k: 1, wantPrecision: 0, wantRecall: 0},
		{k: 5, wantPrecision: 0.4, wantRecall: 1.0},
	}
	for i, tt := range tests {
		rep := reports[i]
		if rep.K != tt.k {
			t.Errorf("reports[%d].K = %d, want %d", i, rep.K, tt.k)
		}
		if !almostEqual(rep.Precision.Value, tt.wantPrecision) {
			t.Errorf("P@%d = %f, want %f", tt.k, rep.Precision.Value, tt.wantPrecision)
		}
		if !almostEqual(rep.Recall.Value, tt.wantRecall) {
			t.Errorf("R@%d = %f, want %f", tt.k, rep.Recall.Value, tt.wantRecall)
		}
	}
}

func TestReport_String(t *testing.T) {
	rep := Evaluate([]Record{NewRecord(1, []int64{itemA}, []int64{itemA})}, 1)
	s := rep.String()
	if !strings.Contains(s, "K=1") || !strings.Contains(s, "P=1.0000") {
		t.Errorf("String() = %q", s)
	}
	if len(rep.Metrics()) != 5 {
		t.Errorf("Metrics() has %d entries, want 5", len(rep.Metrics()))
	}
}
