// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package validation wraps go-playground/validator v10 with a shared instance
// and readable messages.
//
// Two callers use it: the configuration loader, which validates the decoded
// config struct, and the pipeline, which validates input rows before any
// window is planned:
//
//	if err := validation.ValidateRows("transactions", ds.Transactions); err != nil {
//	    return fmt.Errorf("validate input: %w", err)
//	}
//
// Messages use the field namespace so nested config errors read as
// "Config.Schedule.Cron is required".
package validation
