// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

// Source formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatTable   = "table"
)

// Config locates the database file and the three input sources.
type Config struct {
	// Path is the DuckDB file. Empty opens an in-memory database.
	Path string

	// Threads caps DuckDB worker threads. Zero uses runtime.NumCPU().
	Threads int

	// MaxMemory is the DuckDB memory limit, e.g. "4GB". Empty keeps DuckDB's default.
	MaxMemory string

	// Format is how Transactions, Items and Users are read: parquet globs,
	// CSV files or existing table names.
	Format string

	Transactions string
	Items        string

	// Users is optional.
	Users string
}

// DB wraps the DuckDB connection used to read inputs and write run artifacts.
type DB struct {
	conn   *sql.DB
	cfg    Config
	logger zerolog.Logger
}

// New opens DuckDB and checks the connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*DB, error) {
	switch cfg.Format {
	case FormatParquet, FormatCSV, FormatTable:
	default:
		return nil, fmt.Errorf("unknown source format %q", cfg.Format)
	}

	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "duckdb").Logger(),
	}
	if err := db.Ping(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.logger.Debug().
		Str("path", displayPath(cfg.Path)).
		Str("format", cfg.Format).
		Msg("database opened")
	return db, nil
}

func connString(cfg Config) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	params := url.Values{}
	params.Set("threads", strconv.Itoa(threads))
	if cfg.MaxMemory != "" {
		params.Set("max_memory", cfg.MaxMemory)
	}
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	return path + "?" + params.Encode()
}

func displayPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// relation returns the FROM clause reading source in the configured format.
func (db *DB) relation(source string) string {
	switch db.cfg.Format {
	case FormatCSV:
		return "read_csv_auto(" + quoteLiteral(source) + ")"
	case FormatTable:
		return quoteIdent(source)
	default:
		return "read_parquet(" + quoteLiteral(source) + ")"
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
