// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Required input columns. order_id is optional on transactions.
var (
	transactionColumns = []string{"customer_id", "item_id", "created_at"}
	itemColumns        = []string{"item_id", "brand", "age_group", "category"}
	userColumns        = []string{"customer_id", "date_of_birth"}
)

// columns returns the column names of a relation.
func (db *DB) columns(ctx context.Context, rel string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT * FROM "+rel+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", rel, err)
	}
	defer closeWithLog(rows, &db.logger, "rows")

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", rel, err)
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

// requireColumns returns the relation's columns, or a MissingColumnsError
// naming every required column it lacks.
func (db *DB) requireColumns(ctx context.Context, table, rel string, required []string) (map[string]bool, error) {
	have, err := db.columns(ctx, rel)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Table: table, Columns: missing}
	}
	return have, nil
}

// LoadTransactions reads the purchase log.
func (db *DB) LoadTransactions(ctx context.Context) ([]recommend.Transaction, error) {
	rel := db.relation(db.cfg.Transactions)
	cols, err := db.requireColumns(ctx, "transactions", rel, transactionColumns)
	if err != nil {
		return nil, err
	}

	orderExpr := "0"
	if cols["order_id"] {
		orderExpr = "COALESCE(CAST(order_id AS BIGINT), 0)"
	}
	query := `
		SELECT
			CAST(customer_id AS BIGINT),
			CAST(item_id AS BIGINT),
			CAST(created_at AS TIMESTAMP),
			` + orderExpr + `
		FROM ` + rel + `
		WHERE customer_id IS NOT NULL
		  AND item_id IS NOT NULL
		  AND created_at IS NOT NULL`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer closeWithLog(rows, &db.logger, "rows")

	var txns []recommend.Transaction
	for rows.Next() {
		var t recommend.Transaction
		if err := rows.Scan(&t.CustomerID, &t.ItemID, &t.Timestamp, &t.OrderID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Timestamp = t.Timestamp.UTC()
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	db.logger.Info().Int("rows", len(txns)).Msg("loaded transactions")
	return txns, nil
}

// LoadItems reads the item dimension. NULL attributes load as "".
func (db *DB) LoadItems(ctx context.Context) ([]recommend.Item, error) {
	rel := db.relation(db.cfg.Items)
	if _, err := db.requireColumns(ctx, "items", rel, itemColumns); err != nil {
		return nil, err
	}

	query := `
		SELECT
			CAST(item_id AS BIGINT),
			COALESCE(CAST(brand AS VARCHAR), ''),
			COALESCE(CAST(age_group AS VARCHAR), ''),
			COALESCE(CAST(category AS VARCHAR), '')
		FROM ` + rel + `
		WHERE item_id IS NOT NULL`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer closeWithLog(rows, &db.logger, "rows")

	var items []recommend.Item
	for rows.Next() {
		var it recommend.Item
		if err := rows.Scan(&it.ItemID, &it.Brand, &it.AgeGroup, &it.Category); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	db.logger.Info().Int("rows", len(items)).Msg("loaded items")
	return items, nil
}

// LoadUsers reads the user dimension, or returns nothing when no users
// source is configured.
func (db *DB) LoadUsers(ctx context.Context) ([]recommend.User, error) {
	if db.cfg.Users == "" {
		return nil, nil
	}
	rel := db.relation(db.cfg.Users)
	if _, err := db.requireColumns(ctx, "users", rel, userColumns); err != nil {
		return nil, err
	}

	query := `
		SELECT CAST(customer_id AS BIGINT), CAST(date_of_birth AS DATE)
		FROM ` + rel + `
		WHERE customer_id IS NOT NULL`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer closeWithLog(rows, &db.logger, "rows")

	var users []recommend.User
	for rows.Next() {
		var (
			u   recommend.User
			dob sql.NullTime
		)
		if err := rows.Scan(&u.CustomerID, &dob); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if dob.Valid {
			d := dob.Time.UTC()
			u.DateOfBirth = &d
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	db.logger.Info().Int("rows", len(users)).Msg("loaded users")
	return users, nil
}

// LogSpan returns the first and last transaction timestamps without loading
// the log. ok is false when the log is empty.
func (db *DB) LogSpan(ctx context.Context) (first, last time.Time, ok bool, err error) {
	rel := db.relation(db.cfg.Transactions)
	if _, err = db.requireColumns(ctx, "transactions", rel, transactionColumns); err != nil {
		return first, last, false, err
	}

	var lo, hi sql.NullTime
	query := "SELECT MIN(CAST(created_at AS TIMESTAMP)), MAX(CAST(created_at AS TIMESTAMP)) FROM " + rel
	if err = db.conn.QueryRowContext(ctx, query).Scan(&lo, &hi); err != nil {
		return first, last, false, fmt.Errorf("query log span: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return first, last, false, nil
	}
	return lo.Time.UTC(), hi.Time.UTC(), true, nil
}

var _ recommend.DataProvider = (*DB)(nil)
