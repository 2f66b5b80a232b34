// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/goccy/go-json"
)

// MissingDimensionPolicy decides what happens when transactions reference unknown items.
type MissingDimensionPolicy string

const (
	// MissingDimensionZero logs a data-quality warning and treats the item attributes as absent.
	MissingDimensionZero MissingDimensionPolicy = "zero"
	// MissingDimensionFail aborts the run with a MissingDimensionError.
	MissingDimensionFail MissingDimensionPolicy = "fail"
)

// Config contains all configuration for one pipeline run.
type Config struct {
	// Windows controls the historical/recent/holdout split.
	Windows WindowConfig `json:"windows"`

	// Features contains feature engineering thresholds.
	Features FeatureConfig `json:"features"`

	// Candidates contains candidate source switches and caps.
	Candidates CandidateConfig `json:"candidates"`

	// Evaluation contains ranking metric parameters.
	Evaluation EvaluationConfig `json:"evaluation"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Seed is the random seed for category subsampling.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// WindowConfig contains window lengths in whole days.
type WindowConfig struct {
	// HistoricalDays is the length of the feature window.
	// Default: 90.
	HistoricalDays int `json:"historical_days"`

	// RecentDays is the length of the label window.
	// Default: 30.
	RecentDays int `json:"recent_days"`

	// HoldoutDays is the length of the evaluation window.
	// Default: 30.
	HoldoutDays int `json:"holdout_days"`

	// Anchor overrides the end of the holdout window. When zero, the holdout
	// ends at the first day boundary after the last transaction.
	// Default: zero.
	Anchor time.Time `json:"anchor"`
}

// FeatureConfig contains feature engineering thresholds.
type FeatureConfig struct {
	// PowerUserThreshold is the minimum historical transaction count for is_power_user.
	// Default: 13.
	PowerUserThreshold int `json:"power_user_threshold"`

	// NewCustomerThreshold marks customers with fewer transactions as new.
	// Default: 3.
	NewCustomerThreshold int `json:"new_customer_threshold"`

	// MissingDimensionPolicy is "zero" or "fail".
	// Default: "zero".
	MissingDimensionPolicy MissingDimensionPolicy `json:"missing_dimension_policy"`
}

// CandidateConfig contains candidate source switches and caps.
type CandidateConfig struct {
	// EnablePositive turns on recent-window purchase sourcing.
	// Default: true.
	EnablePositive bool `json:"enable_positive"`

	// EnablePopularity turns on top-N popularity sourcing.
	// Default: true.
	EnablePopularity bool `json:"enable_popularity"`

	// EnableCategory turns on category sourcing.
	// Default: true.
	EnableCategory bool `json:"enable_category"`

	// EnableCooccurrence turns on basket co-occurrence sourcing.
	// Default: false.
	EnableCooccurrence bool `json:"enable_cooccurrence"`

	// PopularityTopN is the number of most purchased historical items.
	// Default: 50.
	PopularityTopN int `json:"popularity_top_n"`

	// CategoryCapPerCustomer caps category-sourced items per customer.
	// Default: 200.
	CategoryCapPerCustomer int `json:"category_cap_per_customer"`

	// CooccurrenceTopN caps co-occurrence-sourced items per customer.
	// Default: 20.
	CooccurrenceTopN int `json:"cooccurrence_top_n"`
}

// EvaluationConfig contains ranking metric parameters.
type EvaluationConfig struct {
	// K is the primary cutoff for ranked lists.
	// Default: 10.
	K int `json:"k"`

	// KValues are additional cutoffs reported alongside K.
	// Default: [5, 10, 20].
	KValues []int `json:"k_values"`
}

// Cutoffs returns K and KValues deduplicated in ascending order.
func (e EvaluationConfig) Cutoffs() []int {
	ks := append([]int{e.K}, e.KValues...)
	slices.Sort(ks)
	return slices.Compact(ks)
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// Workers is the number of customer-partitioned workers per stage.
	// Default: runtime.NumCPU().
	Workers int `json:"workers"`

	// Timeout is the maximum time allowed for a run.
	// Default: 30m.
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Windows: WindowConfig{
			HistoricalDays: 90,
			RecentDays:     30,
			HoldoutDays:    30,
		},
		Features: FeatureConfig{
			PowerUserThreshold:     13,
			NewCustomerThreshold:   3,
			MissingDimensionPolicy: MissingDimensionZero,
		},
		Candidates: CandidateConfig{
			EnablePositive:         true,
			EnablePopularity:       true,
			EnableCategory:         true,
			PopularityTopN:         50,
			CategoryCapPerCustomer: 200,
			CooccurrenceTopN:       20,
		},
		Evaluation: EvaluationConfig{
			K:       10,
			KValues: []int{5, 10, 20},
		},
		Limits: LimitsConfig{
			Workers: runtime.NumCPU(),
			Timeout: 30 * time.Minute,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors. All failures are ConfigurationErrors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Windows.HistoricalDays < 1 {
		return NewConfigurationError(InvariantPositiveWidth, "windows.historical_days must be positive, got %d", c.Windows.HistoricalDays)
	}
	if c.Windows.RecentDays < 1 {
		return NewConfigurationError(InvariantPositiveWidth, "windows.recent_days must be positive, got %d", c.Windows.RecentDays)
	}
	if c.Windows.HoldoutDays < 1 {
		return NewConfigurationError(InvariantPositiveWidth, "windows.holdout_days must be positive, got %d", c.Windows.HoldoutDays)
	}

	if c.Features.PowerUserThreshold < 1 {
		return NewConfigurationError(InvariantConfigValue, "features.power_user_threshold must be positive, got %d", c.Features.PowerUserThreshold)
	}
	if c.Features.NewCustomerThreshold < 1 {
		return NewConfigurationError(InvariantConfigValue, "features.new_customer_threshold must be positive, got %d", c.Features.NewCustomerThreshold)
	}
	switch c.Features.MissingDimensionPolicy {
	case MissingDimensionZero, MissingDimensionFail:
	default:
		return NewConfigurationError(InvariantConfigValue, "features.missing_dimension_policy must be zero or fail, got %q", c.Features.MissingDimensionPolicy)
	}

	cc := c.Candidates
	if !cc.EnablePositive && !cc.EnablePopularity && !cc.EnableCategory && !cc.EnableCooccurrence {
		return NewConfigurationError(InvariantConfigValue, "candidates: at least one source must be enabled")
	}
	if cc.EnablePopularity && cc.PopularityTopN < 1 {
		return NewConfigurationError(InvariantConfigValue, "candidates.popularity_top_n must be positive, got %d", cc.PopularityTopN)
	}
	if cc.EnableCategory && cc.CategoryCapPerCustomer < 1 {
		return NewConfigurationError(InvariantConfigValue, "candidates.category_cap_per_customer must be positive, got %d", cc.CategoryCapPerCustomer)
	}
	if cc.EnableCooccurrence && cc.CooccurrenceTopN < 1 {
		return NewConfigurationError(InvariantConfigValue, "candidates.cooccurrence_top_n must be positive, got %d", cc.CooccurrenceTopN)
	}

	if c.Evaluation.K < 1 {
		return NewConfigurationError(InvariantConfigValue, "evaluation.k must be positive, got %d", c.Evaluation.K)
	}
	for _, k := range c.Evaluation.KValues {
		if k < 1 {
			return NewConfigurationError(InvariantConfigValue, "evaluation.k_values must be positive, got %d", k)
		}
	}

	if c.Limits.Workers < 1 {
		return NewConfigurationError(InvariantConfigValue, "limits.workers must be positive, got %d", c.Limits.Workers)
	}
	if c.Limits.Timeout <= 0 {
		return NewConfigurationError(InvariantConfigValue, "limits.timeout must be positive, got %v", c.Limits.Timeout)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Evaluation.KValues = slices.Clone(c.Evaluation.KValues)
	return &out
}

// Hash returns a stable SHA-256 over the fields that influence run outputs.
// Workers and Timeout are excluded since they never change results.
func (c *Config) Hash() (string, error) {
	shape := struct {
		Windows    WindowConfig     `json:"windows"`
		Features   FeatureConfig    `json:"features"`
		Candidates CandidateConfig  `json:"candidates"`
		Evaluation EvaluationConfig `json:"evaluation"`
		Seed       int64            `json:"seed"`
	}{c.Windows, c.Features, c.Candidates, c.Evaluation, c.Seed}

	data, err := json.Marshal(shape)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MarshalJSON renders the timeout as a duration string.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		Limits struct {
			Workers int    `json:"workers"`
			Timeout string `json:"timeout"`
		} `json:"limits"`
	}{
		Alias: (*Alias)(c),
		Limits: struct {
			Workers int    `json:"workers"`
			Timeout string `json:"timeout"`
		}{
			Workers: c.Limits.Workers,
			Timeout: c.Limits.Timeout.String(),
		},
	})
}
