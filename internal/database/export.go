// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Artifact table names.
const (
	TableFeatures      = "customer_features"
	TableCandidates    = "candidates"
	TableTrainingFrame = "training_frame"
)

// WriteFeatures replaces the customer_features table with vectors.
func (db *DB) WriteFeatures(ctx context.Context, vectors []recommend.CustomerFeatureVector) error {
	cols := make([]string, 0, len(recommend.FeatureNames)+1)
	cols = append(cols, "customer_id BIGINT")
	for _, name := range recommend.FeatureNames {
		cols = append(cols, name+" DOUBLE")
	}

	return db.replaceTable(ctx, TableFeatures, cols, len(vectors), func(i int) []any {
		v := vectors[i]
		args := make([]any, 0, len(recommend.FeatureNames)+1)
		args = append(args, v.CustomerID)
		for _, x := range v.Values() {
			args = append(args, x)
		}
		return args
	})
}

// WriteCandidates replaces the candidates table. source_tags holds the
// '|'-joined tag names.
func (db *DB) WriteCandidates(ctx context.Context, candidates []recommend.Candidate) error {
	cols := []string{"customer_id BIGINT", "item_id BIGINT", "source_tags VARCHAR"}
	return db.replaceTable(ctx, TableCandidates, cols, len(candidates), func(i int) []any {
		c := candidates[i]
		return []any{c.CustomerID, c.ItemID, c.Sources.String()}
	})
}

// WriteTrainingFrame replaces the training_frame table.
func (db *DB) WriteTrainingFrame(ctx context.Context, rows []recommend.LabeledCandidate) error {
	cols := []string{"customer_id BIGINT", "item_id BIGINT", "source_tags VARCHAR", "label UTINYINT"}
	return db.replaceTable(ctx, TableTrainingFrame, cols, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.CustomerID, r.ItemID, r.Sources.String(), r.Label}
	})
}

// replaceTable recreates table and inserts n rows in one transaction.
func (db *DB) replaceTable(ctx context.Context, table string, cols []string, n int, row func(i int) []any) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	create := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	var stmt *sql.Stmt
	stmt, err = tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer closeWithLog(stmt, &db.logger, "statement")

	for i := 0; i < n; i++ {
		if _, err = stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	db.logger.Debug().Str("table", table).Int("rows", n).Msg("table written")
	return nil
}

// ExportParquet copies table to a ZSTD-compressed Parquet file at path.
func (db *DB) ExportParquet(ctx context.Context, table, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create export directory %s: %w", dir, err)
		}
	}

	query := fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET, COMPRESSION 'ZSTD')", quoteIdent(table), quoteLiteral(path))
	if _, err := db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("export %s to parquet: %w", table, err)
	}
	db.logger.Info().Str("table", table).Str("path", path).Msg("exported parquet")
	return nil
}
