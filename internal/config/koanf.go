// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfcast/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "SHELFCAST_CONFIG"

// Load builds the configuration from defaults, then the YAML file, then the
// environment. An explicit path must exist; otherwise SHELFCAST_CONFIG and
// DefaultConfigPaths are tried and a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"pipeline.evaluation.k_values",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Windows
	"historical_length_days": "pipeline.windows.historical_days",
	"recent_length_days":     "pipeline.windows.recent_days",
	"holdout_length_days":    "pipeline.windows.holdout_days",
	"window_anchor":          "pipeline.windows.anchor",

	// Features
	"power_user_threshold":     "pipeline.features.power_user_threshold",
	"new_customer_threshold":   "pipeline.features.new_customer_threshold",
	"missing_dimension_policy": "pipeline.features.missing_dimension_policy",

	// Candidates
	"candidates_positive":     "pipeline.candidates.positive",
	"candidates_popularity":   "pipeline.candidates.popularity",
	"candidates_category":     "pipeline.candidates.category",
	"candidates_cooccurrence": "pipeline.candidates.cooccurrence",
	"popularity_top_n":        "pipeline.candidates.popularity_top_n",
	"category_cap":            "pipeline.candidates.category_cap",
	"cooccurrence_top_n":      "pipeline.candidates.cooccurrence_top_n",

	// Evaluation and limits
	"eval_k":            "pipeline.evaluation.k",
	"eval_k_values":     "pipeline.evaluation.k_values",
	"shelfcast_scorer":  "pipeline.scorer",
	"shelfcast_workers": "pipeline.workers",
	"shelfcast_timeout": "pipeline.timeout",
	"shelfcast_seed":    "pipeline.seed",

	// Source
	"duckdb_path":         "source.duckdb_path",
	"duckdb_threads":      "source.threads",
	"duckdb_max_memory":   "source.max_memory",
	"source_format":       "source.format",
	"transactions_source": "source.transactions",
	"items_source":        "source.items",
	"users_source":        "source.users",

	// Output
	"output_dir":        "output.dir",
	"output_parquet":    "output.parquet",
	"output_report":     "output.report",
	"output_submission": "output.submission",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Metrics
	"metrics_listen":  "metrics.listen",
	"pushgateway_url": "metrics.push_url",
	"pushgateway_job": "metrics.job",

	// Schedule
	"schedule_cron":         "schedule.cron",
	"schedule_run_on_start": "schedule.run_on_start",

	// Events
	"events_enabled": "events.enabled",
	"events_backend": "events.backend",
	"nats_url":       "events.url",
	"events_topic":   "events.topic",

	// History
	"history_enabled": "history.enabled",
	"history_path":    "history.path",
	"history_keep":    "history.keep",
}

// envTransformFunc maps an environment variable name to its koanf path, or
// "" to skip it.
//
//   - HISTORICAL_LENGTH_DAYS -> pipeline.windows.historical_days
//   - TRANSACTIONS_SOURCE -> source.transactions
//   - NATS_URL -> events.url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
