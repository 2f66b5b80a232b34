// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend/evaluation"
)

// RunReport summarizes one pipeline run. It is what gets persisted to the run
// history, published as an event and written next to the artifacts.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ConfigHash string    `json:"config_hash"`
	Windows    Windows   `json:"windows"`

	// Input sizes.
	Transactions int `json:"transactions"`
	Items        int `json:"items"`
	Users        int `json:"users"`

	// Customers is the number of feature vectors produced.
	Customers int `json:"customers"`

	// FeatureChecksum is the SHA-256 of the feature table.
	FeatureChecksum string `json:"feature_checksum"`

	// InputDigest identifies the historical inputs the features were derived from.
	InputDigest string `json:"input_digest"`

	Candidates         int            `json:"candidates"`
	CandidatesBySource map[string]int `json:"candidates_by_source"`

	// EmptyPools lists customers for which no source produced a candidate.
	EmptyPools []int64 `json:"empty_pools,omitempty"`

	// MissingItems is the number of distinct historical items without a dimension row.
	MissingItems int `json:"missing_items"`

	Positives    int     `json:"positives"`
	PositiveRate float64 `json:"positive_rate"`

	// Scorer is the name of the scorer used for ranking, empty when none was set.
	Scorer     string              `json:"scorer,omitempty"`
	Evaluation []evaluation.Report `json:"evaluation,omitempty"`
}

// Duration returns how long the run took.
//
//nolint:gocritic // value receiver keeps reports immutable
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
