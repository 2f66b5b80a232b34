// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package config loads Shelfcast configuration with koanf.

# Layers

Configuration is resolved in three layers, later layers winning:

 1. Built-in defaults (structs provider). Pipeline defaults match
    recommend.DefaultConfig.
 2. A YAML file: the --config flag, then SHELFCAST_CONFIG, then
    config.yaml, config.yml, /etc/shelfcast/config.yaml.
 3. Environment variables with flat names.

# Example File

	pipeline:
	  windows:
	    historical_days: 90
	    recent_days: 30
	    holdout_days: 30
	  candidates:
	    cooccurrence: true
	  evaluation:
	    k: 10
	    k_values: [5, 10, 20]
	source:
	  format: parquet
	  transactions: /data/transactions/*.parquet
	  items: /data/items.parquet
	schedule:
	  cron: "0 3 * * *"

# Environment Variables

Windows:
  - HISTORICAL_LENGTH_DAYS, RECENT_LENGTH_DAYS, HOLDOUT_LENGTH_DAYS
  - WINDOW_ANCHOR (YYYY-MM-DD, exclusive holdout end)

Features and candidates:
  - POWER_USER_THRESHOLD, NEW_CUSTOMER_THRESHOLD, MISSING_DIMENSION_POLICY
  - CANDIDATES_POSITIVE, CANDIDATES_POPULARITY, CANDIDATES_CATEGORY, CANDIDATES_COOCCURRENCE
  - POPULARITY_TOP_N, CATEGORY_CAP, COOCCURRENCE_TOP_N

Evaluation and limits:
  - EVAL_K, EVAL_K_VALUES (comma separated)
  - SHELFCAST_SCORER, SHELFCAST_WORKERS, SHELFCAST_TIMEOUT, SHELFCAST_SEED

Source and output:
  - DUCKDB_PATH, DUCKDB_THREADS, DUCKDB_MAX_MEMORY
  - SOURCE_FORMAT, TRANSACTIONS_SOURCE, ITEMS_SOURCE, USERS_SOURCE
  - OUTPUT_DIR, OUTPUT_PARQUET, OUTPUT_REPORT, OUTPUT_SUBMISSION

Operations:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - METRICS_LISTEN, PUSHGATEWAY_URL, PUSHGATEWAY_JOB
  - SCHEDULE_CRON, SCHEDULE_RUN_ON_START
  - EVENTS_ENABLED, EVENTS_BACKEND, NATS_URL, EVENTS_TOPIC
  - HISTORY_ENABLED, HISTORY_PATH, HISTORY_KEEP

Unlisted variables are ignored.
*/
package config
