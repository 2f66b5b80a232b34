// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package pipeline runs the batch stages in order and assembles the run report.

# Stages

	load -> plan -> (features | candidates) -> labels -> score -> evaluate

Features and candidates read the same immutable snapshot and run in parallel.
Score and evaluate only run when a scorer is registered. Every stage is timed
into shelfcast_stage_duration_seconds.

# Usage

	engine, err := pipeline.NewEngine(cfg, logger)
	if err != nil {
	    return err
	}
	engine.SetDataProvider(db)
	engine.SetScorer(scoring.NewPopularity())
	engine.SetHistory(runStore, 100)

	result, err := engine.Run(ctx)

# Concurrency

An Engine executes one run at a time. A second Run while one is active
returns recommend.ErrRunInProgress immediately instead of queueing.
*/
package pipeline
