// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package recommend holds the shared model of a purchase-prediction run.
//
// # Architecture
//
// A run turns a transaction log and two dimension tables into a training
// frame and, optionally, an offline evaluation:
//
//   - window: splits the log into historical, recent and holdout windows
//   - features: derives 13 per-customer features from the historical window
//   - candidates: proposes (customer, item) pairs from several sources
//   - labels: marks pairs bought in the recent window
//   - scoring: ranks candidates with a pluggable Scorer
//   - evaluation: ranking metrics against the holdout window
//   - pipeline: runs the stages in order
//   - storage: run history in BadgerDB
//
// This package owns the types every stage shares: Transaction, Item, User,
// Windows, Candidate, CustomerFeatureVector, Config and RunReport. Snapshot
// indexes a Dataset once per run so stages never rescan the log.
//
// # Determinism
//
// The same input tables and Config always produce bit-identical outputs.
// Random sampling uses a per-customer generator seeded from Config.Seed and
// the customer id, so results do not depend on Limits.Workers. Iteration over
// customers, items and categories happens in ascending id order.
//
// # Leakage
//
// Windows are half-open and disjoint. Features and candidates only read the
// historical window (positives read the recent window), labels only read the
// recent window and evaluation only reads the holdout window. Every stage
// re-checks window ordering before it reads data.
//
// # Errors
//
// ConfigurationError is fatal and matches ErrConfiguration.
// MissingDimensionError and EmptyCandidatePoolError are data-quality
// warnings; they only abort a run when the config asks for it.
package recommend
