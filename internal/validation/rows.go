// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package validation

import (
	"fmt"
	"strings"
)

// maxRowErrors bounds how many failing rows a RowError keeps.
const maxRowErrors = 5

// RowFailure is one rejected input row.
type RowFailure struct {
	Index int
	Err   *RequestValidationError
}

// RowError reports the rows of one input table that failed validation.
type RowError struct {
	Table    string
	Invalid  int
	Failures []RowFailure
}

func (e *RowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d invalid rows", e.Table, e.Invalid)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; row %d: %s", f.Index, f.Err.Error())
	}
	return b.String()
}

// ValidateRows validates every row of table. It returns nil when all rows
// pass; otherwise the first few failures are kept with the total count.
func ValidateRows[T any](table string, rows []T) *RowError {
	var rowErr *RowError
	for i := range rows {
		verr := ValidateStruct(&rows[i])
		if verr == nil {
			continue
		}
		if rowErr == nil {
			rowErr = &RowError{Table: table}
		}
		rowErr.Invalid++
		if len(rowErr.Failures) < maxRowErrors {
			rowErr.Failures = append(rowErr.Failures, RowFailure{Index: i, Err: verr})
		}
	}
	return rowErr
}
