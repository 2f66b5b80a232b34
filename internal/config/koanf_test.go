// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := defaultConfig()
	if cfg.Pipeline.Windows != want.Pipeline.Windows {
		t.Errorf("Windows = %+v, want %+v", cfg.Pipeline.Windows, want.Pipeline.Windows)
	}
	if cfg.Pipeline.Candidates != want.Pipeline.Candidates {
		t.Errorf("Candidates = %+v, want %+v", cfg.Pipeline.Candidates, want.Pipeline.Candidates)
	}
	if !reflect.DeepEqual(cfg.Pipeline.Evaluation.KValues, want.Pipeline.Evaluation.KValues) {
		t.Errorf("KValues = %v, want %v", cfg.Pipeline.Evaluation.KValues, want.Pipeline.Evaluation.KValues)
	}
	if cfg.Pipeline.Timeout != want.Pipeline.Timeout || cfg.Pipeline.Seed != want.Pipeline.Seed {
		t.Errorf("Timeout/Seed = %v/%d, want %v/%d", cfg.Pipeline.Timeout, cfg.Pipeline.Seed, want.Pipeline.Timeout, want.Pipeline.Seed)
	}
	if cfg.Schedule != want.Schedule || cfg.History != want.History {
		t.Errorf("Schedule/History = %+v/%+v", cfg.Schedule, cfg.History)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  windows:
    historical_days: 60
    anchor: "2024-07-01"
  candidates:
    cooccurrence: true
  evaluation:
    k_values: [1, 3]
  timeout: 5m
source:
  format: csv
  transactions: /data/tx.csv
  items: /data/items.csv
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.Windows.HistoricalDays != 60 {
		t.Errorf("HistoricalDays = %d, want 60", cfg.Pipeline.Windows.HistoricalDays)
	}
	if cfg.Pipeline.Windows.RecentDays != 30 {
		t.Errorf("RecentDays = %d, want default 30", cfg.Pipeline.Windows.RecentDays)
	}
	if !cfg.Pipeline.Candidates.Cooccurrence {
		t.Error("Cooccurrence = false, want true")
	}
	if !reflect.DeepEqual(cfg.Pipeline.Evaluation.KValues, []int{1, 3}) {
		t.Errorf("KValues = %v, want [1 3]", cfg.Pipeline.Evaluation.KValues)
	}
	if cfg.Pipeline.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m", cfg.Pipeline.Timeout)
	}
	if cfg.Source.Format != FormatCSV || cfg.Source.Transactions != "/data/tx.csv" {
		t.Errorf("Source = %+v", cfg.Source)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  windows:
    historical_days: 60
`)
	t.Setenv("HISTORICAL_LENGTH_DAYS", "120")
	t.Setenv("EVAL_K_VALUES", "2, 4,8")
	t.Setenv("CANDIDATES_COOCCURRENCE", "true")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pipeline.Windows.HistoricalDays != 120 {
		t.Errorf("HistoricalDays = %d, want 120", cfg.Pipeline.Windows.HistoricalDays)
	}
	if !reflect.DeepEqual(cfg.Pipeline.Evaluation.KValues, []int{2, 4, 8}) {
		t.Errorf("KValues = %v, want [2 4 8]", cfg.Pipeline.Evaluation.KValues)
	}
	if !cfg.Pipeline.Candidates.Cooccurrence {
		t.Error("Cooccurrence = false, want true")
	}
	if cfg.Events.URL != "nats://broker:4222" {
		t.Errorf("Events.URL = %q", cfg.Events.URL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
	}{
		{
			name: "explicit file missing",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") },
		},
		{
			name: "invalid yaml",
			path: func(t *testing.T) string { return writeConfig(t, "pipeline: [unclosed") },
		},
		{
			name: "invalid value from env",
			path: func(t *testing.T) string { return writeConfig(t, "{}") },
			env:  map[string]string{"HOLDOUT_LENGTH_DAYS": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("Load() = nil error, want error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HISTORICAL_LENGTH_DAYS", "pipeline.windows.historical_days"},
		{"TRANSACTIONS_SOURCE", "source.transactions"},
		{"NATS_URL", "events.url"},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
