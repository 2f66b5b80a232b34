// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package window plans the historical, recent and holdout windows of a run and
// asserts their ordering. Features only ever see the historical window, labels
// only the recent one, and evaluation only the holdout.
package window
