// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package main is the shelfcast command line.
//
// Shelfcast turns a retail transaction log into a leakage-free training
// frame for purchase prediction: per-customer features, candidate
// (customer, item) pairs and labels, plus an offline ranking evaluation
// against a holdout window.
//
// # Commands
//
//	shelfcast run        one batch run, writes artifacts to output.dir
//	shelfcast plan       print the windows the current data would produce
//	shelfcast evaluate   score a submission JSON against ground truth
//	shelfcast schedule   supervised daemon: cron runs plus /metrics and /healthz
//
// # Configuration
//
// Configuration is loaded via koanf with layered sources (highest priority wins):
//   - Environment variables (HISTORICAL_LENGTH_DAYS, TRANSACTIONS_SOURCE, ...)
//   - Config file (--config, SHELFCAST_CONFIG, ./config.yaml)
//   - Built-in defaults
//
// # Example Usage
//
//	export TRANSACTIONS_SOURCE='data/transactions/*.parquet'
//	export ITEMS_SOURCE=data/items.parquet
//	shelfcast run
//
//	shelfcast evaluate --submission out/submission.json --ground-truth out/groundtruth.json
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
