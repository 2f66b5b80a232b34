// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package metrics provides Prometheus instrumentation for pipeline runs.

# Overview

Collectors are registered on the default registry at package init through
promauto. They cover:
  - Stage latency and stage failures
  - Input table sizes and per-run output sizes
  - Data-quality warnings (missing dimension rows, empty candidate pools)
  - Evaluation aggregates per metric and cutoff
  - Run outcomes and the last successful run
  - Run event publishing

# Metrics Endpoint

The scheduled daemon exposes the registry on /metrics:

	curl http://localhost:9464/metrics

One-shot runs have no scrape window, so they can push to a Pushgateway
instead (metrics.push_url). Pushes are guarded by a circuit breaker.

# Available Metrics

Stage Metrics:
  - shelfcast_stage_duration_seconds (histogram), labels: stage
  - shelfcast_stage_errors_total (counter), labels: stage

Run Metrics:
  - shelfcast_rows_loaded (gauge), labels: table
  - shelfcast_customers_processed (gauge)
  - shelfcast_candidates (gauge), labels: source
  - shelfcast_candidates_total (gauge)
  - shelfcast_training_positive_rate (gauge)
  - shelfcast_runs_total (counter), labels: outcome
  - shelfcast_run_duration_seconds (histogram)
  - shelfcast_run_last_success_timestamp (gauge)
  - shelfcast_feature_drift_total (counter)

Data Quality Metrics:
  - shelfcast_empty_candidate_pools_total (counter)
  - shelfcast_missing_dimension_items_total (counter)

Evaluation Metrics:
  - shelfcast_evaluation_value (gauge), labels: metric, k
  - shelfcast_evaluation_customers (gauge), labels: metric, k
*/
package metrics
