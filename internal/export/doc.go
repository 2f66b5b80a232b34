// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package export writes the JSON artifacts of a run: the run report and
// ranked lists in submission format.
//
// A submission maps customer ids to ranked item ids, both as strings:
//
//	{"1042": ["77", "12", "903"], "1043": ["5"]}
//
// The same format holds holdout ground truth, so a submission can be scored
// offline with ReadSubmission and Records. Readers also accept the "cus_"
// and "item_" prefixed ids used by older submission files.
package export
