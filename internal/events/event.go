// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// SchemaVersion is the current RunCompleted schema version.
// Increment this when making breaking changes.
const SchemaVersion = 1

// RunCompleted announces a finished pipeline run.
type RunCompleted struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`

	RunID           string    `json:"run_id"`
	ConfigHash      string    `json:"config_hash"`
	FeatureChecksum string    `json:"feature_checksum"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`

	Windows      recommend.Windows `json:"windows"`
	Customers    int               `json:"customers"`
	Candidates   int               `json:"candidates"`
	PositiveRate float64           `json:"positive_rate"`

	// Metrics holds the evaluation results keyed "<metric>@<k>", e.g. "recall@10".
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// NewRunCompleted builds the event for a run report.
func NewRunCompleted(r *recommend.RunReport) *RunCompleted {
	e := &RunCompleted{
		SchemaVersion:   SchemaVersion,
		EventID:         uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		RunID:           r.RunID,
		ConfigHash:      r.ConfigHash,
		FeatureChecksum: r.FeatureChecksum,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Windows:         r.Windows,
		Customers:       r.Customers,
		Candidates:      r.Candidates,
		PositiveRate:    r.PositiveRate,
	}
	if len(r.Evaluation) > 0 {
		e.Metrics = make(map[string]float64, 5*len(r.Evaluation))
		for _, rep := range r.Evaluation {
			for name, agg := range rep.Metrics() {
				e.Metrics[fmt.Sprintf("%s@%d", name, rep.K)] = agg.Value
			}
		}
	}
	return e
}

// Validate checks required fields.
func (e *RunCompleted) Validate() error {
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	if e.RunID == "" {
		return errors.New("run_id is required")
	}
	if e.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}

// Marshal validates and encodes the event.
func (e *RunCompleted) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DecodeRunCompleted decodes a message payload.
func DecodeRunCompleted(data []byte) (*RunCompleted, error) {
	var e RunCompleted
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", e.SchemaVersion)
	}
	return &e, nil
}
