// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Pipeline.Windows.HistoricalDays != 90 || cfg.Pipeline.Windows.RecentDays != 30 || cfg.Pipeline.Windows.HoldoutDays != 30 {
		t.Errorf("window defaults = %+v, want 90/30/30", cfg.Pipeline.Windows)
	}
	if cfg.Pipeline.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Pipeline.Seed)
	}
	if cfg.Pipeline.Candidates.Cooccurrence {
		t.Error("co-occurrence source should be disabled by default")
	}
	if cfg.Source.Format != FormatParquet {
		t.Errorf("Source.Format = %q, want parquet", cfg.Source.Format)
	}
	if cfg.Events.Enabled {
		t.Error("events should be disabled by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "csv source", modify: func(c *Config) { c.Source.Format = FormatCSV }},
		{name: "unknown source format", modify: func(c *Config) { c.Source.Format = "orc" }, wantError: true},
		{name: "missing transactions", modify: func(c *Config) { c.Source.Transactions = "" }, wantError: true},
		{name: "zero workers", modify: func(c *Config) { c.Pipeline.Workers = 0 }, wantError: true},
		{name: "zero timeout", modify: func(c *Config) { c.Pipeline.Timeout = 0 }, wantError: true},
		{name: "unknown scorer", modify: func(c *Config) { c.Pipeline.Scorer = "neural" }, wantError: true},
		{name: "no scorer", modify: func(c *Config) { c.Pipeline.Scorer = "none" }},
		{name: "zero holdout", modify: func(c *Config) { c.Pipeline.Windows.HoldoutDays = 0 }, wantError: true},
		{name: "bad anchor", modify: func(c *Config) { c.Pipeline.Windows.Anchor = "01/06/2024" }, wantError: true},
		{name: "good anchor", modify: func(c *Config) { c.Pipeline.Windows.Anchor = "2024-06-01" }},
		{name: "bad policy", modify: func(c *Config) { c.Pipeline.Features.MissingDimensionPolicy = "drop" }, wantError: true},
		{name: "bad log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantError: true},
		{name: "bad log format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantError: true},
		{name: "bad cron", modify: func(c *Config) { c.Schedule.Cron = "every day" }, wantError: true},
		{name: "bad push url", modify: func(c *Config) { c.Metrics.PushURL = "not a url" }, wantError: true},
		{name: "nats without url", modify: func(c *Config) {
			c.Events.Enabled = true
			c.Events.URL = ""
		}, wantError: true},
		{name: "gochannel without url", modify: func(c *Config) {
			c.Events.Enabled = true
			c.Events.Backend = BackendGoChannel
			c.Events.URL = ""
		}},
		{name: "history without path", modify: func(c *Config) { c.History.Path = "" }, wantError: true},
		{name: "history disabled without path", modify: func(c *Config) {
			c.History.Enabled = false
			c.History.Path = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidate_PipelineErrorsAreConfigurationErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pipeline.Evaluation.K = 0

	err := cfg.Validate()
	if !errors.Is(err, recommend.ErrConfiguration) {
		t.Errorf("Validate() error = %v, want ErrConfiguration", err)
	}
}

func TestPipelineConfig_Recommend(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pipeline.Windows.Anchor = "2024-07-01"
	cfg.Pipeline.Candidates.Cooccurrence = true
	cfg.Pipeline.Candidates.CategoryCap = 50
	cfg.Pipeline.Workers = 3

	rc, err := cfg.Pipeline.Recommend()
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if !rc.Windows.Anchor.Equal(want) {
		t.Errorf("Anchor = %v, want %v", rc.Windows.Anchor, want)
	}
	if !rc.Candidates.EnableCooccurrence || rc.Candidates.CategoryCapPerCustomer != 50 {
		t.Errorf("Candidates = %+v", rc.Candidates)
	}
	if rc.Limits.Workers != 3 {
		t.Errorf("Workers = %d, want 3", rc.Limits.Workers)
	}

	rc.Evaluation.KValues[0] = 99
	if cfg.Pipeline.Evaluation.KValues[0] == 99 {
		t.Error("Recommend() shares KValues with the source config")
	}
}
