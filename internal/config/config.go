// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Source formats understood by the DuckDB loader.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatTable   = "table"
)

// Event backends.
const (
	BackendNATS      = "nats"
	BackendGoChannel = "gochannel"
)

// anchorLayout is the date layout of pipeline.windows.anchor.
const anchorLayout = "2006-01-02"

// Config is the complete process configuration.
type Config struct {
	Pipeline PipelineConfig `koanf:"pipeline"`
	Source   SourceConfig   `koanf:"source"`
	Output   OutputConfig   `koanf:"output"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Events   EventsConfig   `koanf:"events"`
	History  HistoryConfig  `koanf:"history"`
}

// PipelineConfig mirrors recommend.Config with file and env friendly types.
type PipelineConfig struct {
	Windows    WindowsConfig    `koanf:"windows"`
	Features   FeaturesConfig   `koanf:"features"`
	Candidates CandidatesConfig `koanf:"candidates"`
	Evaluation EvaluationConfig `koanf:"evaluation"`

	// Scorer ranks candidates for evaluation: popularity, linear or none.
	Scorer string `koanf:"scorer" validate:"oneof=popularity linear none"`

	Workers int           `koanf:"workers" validate:"gte=1"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Seed    int64         `koanf:"seed"`
}

// WindowsConfig holds window lengths in days and an optional anchor date.
type WindowsConfig struct {
	HistoricalDays int `koanf:"historical_days"`
	RecentDays     int `koanf:"recent_days"`
	HoldoutDays    int `koanf:"holdout_days"`

	// Anchor is the exclusive holdout end as YYYY-MM-DD. Empty derives it
	// from the last transaction.
	Anchor string `koanf:"anchor"`
}

// FeaturesConfig holds the segmentation thresholds.
type FeaturesConfig struct {
	PowerUserThreshold     int    `koanf:"power_user_threshold"`
	NewCustomerThreshold   int    `koanf:"new_customer_threshold"`
	MissingDimensionPolicy string `koanf:"missing_dimension_policy" validate:"oneof=zero fail"`
}

// CandidatesConfig toggles candidate sources and their caps.
type CandidatesConfig struct {
	Positive         bool `koanf:"positive"`
	Popularity       bool `koanf:"popularity"`
	Category         bool `koanf:"category"`
	Cooccurrence     bool `koanf:"cooccurrence"`
	PopularityTopN   int  `koanf:"popularity_top_n"`
	CategoryCap      int  `koanf:"category_cap"`
	CooccurrenceTopN int  `koanf:"cooccurrence_top_n"`
}

// EvaluationConfig holds the ranking cutoffs.
type EvaluationConfig struct {
	K       int   `koanf:"k"`
	KValues []int `koanf:"k_values"`
}

// SourceConfig locates the three input tables.
type SourceConfig struct {
	// DuckDBPath is the database file. Empty opens an in-memory database.
	DuckDBPath string `koanf:"duckdb_path"`
	Threads    int    `koanf:"threads" validate:"gte=0"`
	MaxMemory  string `koanf:"max_memory"`

	// Format applies to all three sources: parquet, csv or table.
	Format       string `koanf:"format" validate:"oneof=parquet csv table"`
	Transactions string `koanf:"transactions" validate:"required"`
	Items        string `koanf:"items" validate:"required"`

	// Users is optional; the feature set does not read it.
	Users string `koanf:"users"`
}

// OutputConfig controls the artifacts a run writes.
type OutputConfig struct {
	Dir        string `koanf:"dir" validate:"required"`
	Parquet    bool   `koanf:"parquet"`
	Report     bool   `koanf:"report"`
	Submission bool   `koanf:"submission"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig configures the scrape endpoint and the optional Pushgateway.
type MetricsConfig struct {
	Listen  string `koanf:"listen" validate:"required"`
	PushURL string `koanf:"push_url" validate:"omitempty,url"`
	Job     string `koanf:"job" validate:"required"`
}

// ScheduleConfig configures the supervised daemon.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression.
	Cron       string `koanf:"cron" validate:"required"`
	RunOnStart bool   `koanf:"run_on_start"`
}

// EventsConfig configures run-completed event publishing.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Backend string `koanf:"backend" validate:"oneof=nats gochannel"`
	URL     string `koanf:"url"`
	Topic   string `koanf:"topic" validate:"required"`
}

// HistoryConfig configures the badger run history.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	Keep    int    `koanf:"keep" validate:"gte=0"`
}

// defaultConfig returns the configuration before file and env overrides.
// Pipeline defaults come from recommend.DefaultConfig.
func defaultConfig() *Config {
	rc := recommend.DefaultConfig()
	return &Config{
		Pipeline: PipelineConfig{
			Windows: WindowsConfig{
				HistoricalDays: rc.Windows.HistoricalDays,
				RecentDays:     rc.Windows.RecentDays,
				HoldoutDays:    rc.Windows.HoldoutDays,
			},
			Features: FeaturesConfig{
				PowerUserThreshold:     rc.Features.PowerUserThreshold,
				NewCustomerThreshold:   rc.Features.NewCustomerThreshold,
				MissingDimensionPolicy: string(rc.Features.MissingDimensionPolicy),
			},
			Candidates: CandidatesConfig{
				Positive:         rc.Candidates.EnablePositive,
				Popularity:       rc.Candidates.EnablePopularity,
				Category:         rc.Candidates.EnableCategory,
				Cooccurrence:     rc.Candidates.EnableCooccurrence,
				PopularityTopN:   rc.Candidates.PopularityTopN,
				CategoryCap:      rc.Candidates.CategoryCapPerCustomer,
				CooccurrenceTopN: rc.Candidates.CooccurrenceTopN,
			},
			Evaluation: EvaluationConfig{
				K:       rc.Evaluation.K,
				KValues: rc.Evaluation.KValues,
			},
			Scorer:  "popularity",
			Workers: rc.Limits.Workers,
			Timeout: rc.Limits.Timeout,
			Seed:    rc.Seed,
		},
		Source: SourceConfig{
			Format:       FormatParquet,
			Transactions: "data/transactions/*.parquet",
			Items:        "data/items.parquet",
			MaxMemory:    "4GB",
		},
		Output: OutputConfig{
			Dir:        "out",
			Parquet:    true,
			Report:     true,
			Submission: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Listen: ":9464",
			Job:    "shelfcast",
		},
		Schedule: ScheduleConfig{
			Cron:       "0 3 * * *",
			RunOnStart: false,
		},
		Events: EventsConfig{
			Enabled: false,
			Backend: BackendNATS,
			URL:     "nats://127.0.0.1:4222",
			Topic:   "shelfcast.runs.completed",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "out/history",
			Keep:    100,
		},
	}
}

// Recommend converts the pipeline section into the engine configuration.
func (p *PipelineConfig) Recommend() (*recommend.Config, error) {
	rc := &recommend.Config{
		Windows: recommend.WindowConfig{
			HistoricalDays: p.Windows.HistoricalDays,
			RecentDays:     p.Windows.RecentDays,
			HoldoutDays:    p.Windows.HoldoutDays,
		},
		Features: recommend.FeatureConfig{
			PowerUserThreshold:     p.Features.PowerUserThreshold,
			NewCustomerThreshold:   p.Features.NewCustomerThreshold,
			MissingDimensionPolicy: recommend.MissingDimensionPolicy(p.Features.MissingDimensionPolicy),
		},
		Candidates: recommend.CandidateConfig{
			EnablePositive:         p.Candidates.Positive,
			EnablePopularity:       p.Candidates.Popularity,
			EnableCategory:         p.Candidates.Category,
			EnableCooccurrence:     p.Candidates.Cooccurrence,
			PopularityTopN:         p.Candidates.PopularityTopN,
			CategoryCapPerCustomer: p.Candidates.CategoryCap,
			CooccurrenceTopN:       p.Candidates.CooccurrenceTopN,
		},
		Evaluation: recommend.EvaluationConfig{
			K:       p.Evaluation.K,
			KValues: append([]int(nil), p.Evaluation.KValues...),
		},
		Limits: recommend.LimitsConfig{
			Workers: p.Workers,
			Timeout: p.Timeout,
		},
		Seed: p.Seed,
	}

	if p.Windows.Anchor != "" {
		anchor, err := time.ParseInLocation(anchorLayout, p.Windows.Anchor, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("pipeline.windows.anchor %q: want YYYY-MM-DD: %w", p.Windows.Anchor, err)
		}
		rc.Windows.Anchor = anchor
	}

	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}
