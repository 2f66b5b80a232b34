// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package export

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/pipeline"
)

func TestWriteSubmission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "submission.json")
	s := FromRankings([]pipeline.Ranking{
		{CustomerID: 7, Items: []int64{30, 10}},
		{CustomerID: 2, Items: nil},
	})

	if err := WriteSubmission(path, s); err != nil {
		t.Fatalf("WriteSubmission() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"7": [`) || !strings.Contains(string(data), `"30"`) {
		t.Errorf("submission file = %s", data)
	}

	got, err := ReadSubmission(path)
	if err != nil {
		t.Fatalf("ReadSubmission() error = %v", err)
	}
	if !reflect.DeepEqual(got[7], []int64{30, 10}) {
		t.Errorf("customer 7 = %v, want [30 10]", got[7])
	}
	if items, ok := got[2]; !ok || len(items) != 0 {
		t.Errorf("customer 2 = %v (present %v), want empty list", items, ok)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("output directory has %d entries, want only the submission", len(entries))
	}
}

func TestReadSubmission(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      Submission
		wantError bool
	}{
		{
			name:    "plain ids",
			content: `{"1": ["5", "6"]}`,
			want:    Submission{1: {5, 6}},
		},
		{
			name:    "prefixed ids",
			content: `{"cus_001": ["item_5"]}`,
			want:    Submission{1: {5}},
		},
		{name: "bad customer", content: `{"abc": ["5"]}`, wantError: true},
		{name: "bad item", content: `{"1": ["x"]}`, wantError: true},
		{name: "not json", content: `[1, 2`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := ReadSubmission(path)
			if (err != nil) != tt.wantError {
				t.Fatalf("ReadSubmission() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadSubmission() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ReadSubmission(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadSubmission() of missing file = nil error")
	}
}

func TestGroundTruthAndRecords(t *testing.T) {
	at := func(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC) }
	holdout := recommend.NewPartition([]recommend.Transaction{
		{CustomerID: 4, ItemID: 9, Timestamp: at(2)},
		{CustomerID: 4, ItemID: 3, Timestamp: at(3)},
		{CustomerID: 4, ItemID: 9, Timestamp: at(4)},
		{CustomerID: 8, ItemID: 1, Timestamp: at(2)},
	}, recommend.Window{Name: recommend.WindowHoldout, Start: at(1), End: at(10)})

	truth := GroundTruth(holdout)
	if !reflect.DeepEqual(truth[4], []int64{3, 9}) {
		t.Errorf("ground truth of customer 4 = %v, want [3 9]", truth[4])
	}

	pred := Submission{4: {9, 2}, 5: {1}}
	records := Records(pred, truth)
	if len(records) != 3 {
		t.Fatalf("Records() = %d, want 3", len(records))
	}
	wantIDs := []int64{4, 5, 8}
	for i, r := range records {
		if r.CustomerID != wantIDs[i] {
			t.Errorf("record %d customer = %d, want %d", i, r.CustomerID, wantIDs[i])
		}
	}
	if len(records[1].GroundTruth) != 0 || len(records[2].Ranked) != 0 {
		t.Errorf("records = %+v", records)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	start := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	r := &recommend.RunReport{
		RunID:              "run-9",
		StartedAt:          start,
		FinishedAt:         start.Add(90 * time.Second),
		Customers:          12,
		CandidatesBySource: map[string]int{"popularity": 40},
	}

	if err := WriteReport(path, r); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	got, err := ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if got.RunID != "run-9" || got.Customers != 12 || got.CandidatesBySource["popularity"] != 40 {
		t.Errorf("ReadReport() = %+v", got)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got.Duration())
	}
}
