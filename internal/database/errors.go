// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ErrMissingColumns is matched by every MissingColumnsError.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError reports an input table without one of its schema columns.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// Is lets errors.Is match ErrMissingColumns.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, logger *zerolog.Logger, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Str("type", resourceType).Err(err).Msg("failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where the close error is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
