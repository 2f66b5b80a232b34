// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/evaluation"
	"github.com/tomtom215/shelfcast/internal/recommend/pipeline"
)

// Submission maps a customer id to its ranked item ids.
type Submission map[int64][]int64

// FromRankings converts pipeline rankings into a submission.
func FromRankings(rankings []pipeline.Ranking) Submission {
	s := make(Submission, len(rankings))
	for _, r := range rankings {
		s[r.CustomerID] = slices.Clone(r.Items)
	}
	return s
}

// GroundTruth collects the distinct items each customer bought in p, ascending.
func GroundTruth(p *recommend.Partition) Submission {
	s := make(Submission, p.Len())
	for i, id := range p.Customers {
		s[id] = p.Items(i)
	}
	return s
}

// Customers returns the customer ids in ascending order.
func (s Submission) Customers() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Records pairs predictions with ground truth for every customer present in
// either. Customers missing from pred are scored against an empty list.
func Records(pred, truth Submission) []evaluation.Record {
	ids := append(pred.Customers(), truth.Customers()...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	records := make([]evaluation.Record, len(ids))
	for i, id := range ids {
		records[i] = evaluation.NewRecord(id, pred[id], truth[id])
	}
	return records
}

// WriteSubmission writes s as {"<customer_id>": ["<item_id>", ...]}.
func WriteSubmission(path string, s Submission) error {
	out := make(map[string][]string, len(s))
	for customer, items := range s {
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = strconv.FormatInt(item, 10)
		}
		out[strconv.FormatInt(customer, 10)] = ids
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	return writeFile(path, data)
}

// ReadSubmission reads a file written by WriteSubmission.
func ReadSubmission(path string) (Submission, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read submission: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode submission %s: %w", path, err)
	}

	s := make(Submission, len(raw))
	for key, items := range raw {
		customer, err := parseID(key, "cus_")
		if err != nil {
			return nil, fmt.Errorf("%s: customer %q: %w", path, key, err)
		}
		ids := make([]int64, len(items))
		for i, item := range items {
			if ids[i], err = parseID(item, "item_"); err != nil {
				return nil, fmt.Errorf("%s: customer %q item %q: %w", path, key, item, err)
			}
		}
		s[customer] = ids
	}
	return s, nil
}

func parseID(s, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, prefix), 10, 64)
}

// WriteReport writes the run report as indented JSON.
func WriteReport(path string, r *recommend.RunReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, data)
}

// ReadReport reads a file written by WriteReport.
func ReadReport(path string) (*recommend.RunReport, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r recommend.RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}

// writeFile replaces path through a temporary file in the same directory so
// readers never see a partial artifact.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
