// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrConfiguration      = errors.New("configuration error")
	ErrMissingDimension   = errors.New("missing dimension rows")
	ErrEmptyCandidatePool = errors.New("empty candidate pool")
	ErrRunInProgress      = errors.New("run already in progress")
)

// Invariant names used by ConfigurationError.
const (
	InvariantWindowOrder   = "window_order"
	InvariantNonEmptySpan  = "non_empty_span"
	InvariantPositiveWidth = "positive_window_duration"
	InvariantSpanCoverage  = "span_covers_windows"
	InvariantConfigValue   = "config_value"
)

// ConfigurationError reports an invalid or leakage-inducing configuration.
// It is fatal and never retried.
type ConfigurationError struct {
	Invariant string
	Detail    string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Invariant, e.Detail)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError with a formatted detail.
func NewConfigurationError(invariant, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// MissingDimensionError reports transactions whose items have no dimension row.
type MissingDimensionError struct {
	// ItemIDs holds the distinct unknown item ids, sorted ascending.
	ItemIDs []int64

	// Rows is the number of transactions referencing them.
	Rows int
}

// Error implements the error interface.
func (e *MissingDimensionError) Error() string {
	return fmt.Sprintf("missing dimension rows: %d items referenced by %d transactions", len(e.ItemIDs), e.Rows)
}

// Is matches ErrMissingDimension.
func (e *MissingDimensionError) Is(target error) bool {
	return target == ErrMissingDimension
}

// EmptyCandidatePoolError reports a customer for which no enabled source produced a candidate.
type EmptyCandidatePoolError struct {
	CustomerID int64
}

// Error implements the error interface.
func (e *EmptyCandidatePoolError) Error() string {
	return fmt.Sprintf("empty candidate pool for customer %d", e.CustomerID)
}

// Is matches ErrEmptyCandidatePool.
func (e *EmptyCandidatePoolError) Is(target error) bool {
	return target == ErrEmptyCandidatePool
}
