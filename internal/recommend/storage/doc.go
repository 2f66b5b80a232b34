// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package storage persists run history in BadgerDB.
//
// # Overview
//
// Every finished run stores its recommend.RunReport, JSON encoded, under its
// run ID. A time index allows listing runs newest first and pruning old ones.
//
// # Fingerprints
//
// The store also keeps, per configuration hash and input digest, the
// feature-table checksum of the latest run with that pair. The input digest
// (recommend.Snapshot.InputDigest) covers the historical window and its rows,
// so a scheduled run over a grown log gets a fresh fingerprint. Runs over the
// same configuration and the same inputs must produce bit-identical feature
// tables; CheckFingerprint reports a mismatch so the caller can log it as drift.
//
// # Key Layout
//
//	run:{run_id}                      -> RunReport JSON
//	run_time:{unix_nanos}:{run_id}    -> run_id
//	fingerprint:{config_hash}:{input} -> feature checksum
//
// # Usage Example
//
//	store, err := storage.Open(storage.Config{Path: "/var/lib/shelfcast/history"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.Save(ctx, &report); err != nil {
//	    return err
//	}
package storage
