// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Key prefixes for BadgerDB storage
const (
	runKeyPrefix         = "run:"
	runTimeKeyPrefix     = "run_time:"
	fingerprintKeyPrefix = "fingerprint:"
)

// ErrRunNotFound is returned when a run ID has no stored report.
var ErrRunNotFound = errors.New("run not found")

// Config controls how the store is opened.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory. Used by tests and dry runs.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// RunStore persists run reports and feature fingerprints.
type RunStore struct {
	db *badger.DB
}

// Open opens (or creates) the store described by cfg.
func Open(cfg Config) (*RunStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("history path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return NewRunStore(db), nil
}

// NewRunStore wraps an open database.
func NewRunStore(db *badger.DB) *RunStore {
	return &RunStore{db: db}
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

func timeKey(r *recommend.RunReport) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", runTimeKeyPrefix, r.StartedAt.UnixNano(), r.RunID))
}

// Save stores a run report, replacing any report with the same run ID.
func (s *RunStore) Save(ctx context.Context, r *recommend.RunReport) error {
	if r.RunID == "" {
		return errors.New("run report has no run id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(runKeyPrefix+r.RunID), data); err != nil {
			return fmt.Errorf("set run: %w", err)
		}
		if err := txn.Set(timeKey(r), []byte(r.RunID)); err != nil {
			return fmt.Errorf("set run time index: %w", err)
		}
		return nil
	})
}

// Get returns the report of a run.
func (s *RunStore) Get(ctx context.Context, runID string) (*recommend.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var report recommend.RunReport
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runKeyPrefix + runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns up to limit reports, newest first. A non-positive limit returns all.
func (s *RunStore) List(ctx context.Context, limit int) ([]*recommend.RunReport, error) {
	ids, err := s.runIDs(true)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*recommend.RunReport, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// runIDs walks the time index. newestFirst iterates in reverse.
func (s *RunStore) runIDs(newestFirst bool) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = newestFirst
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runTimeKeyPrefix)
		seek := prefix
		if newestFirst {
			// Reverse iteration starts at the last key <= seek.
			seek = append([]byte(runTimeKeyPrefix), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return ids, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *RunStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	reports, err := s.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(reports) <= keep {
		return 0, nil
	}

	removed := 0
	for _, r := range reports[keep:] {
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete([]byte(runKeyPrefix + r.RunID)); err != nil {
				return err
			}
			return txn.Delete(timeKey(r))
		})
		if err != nil {
			return removed, fmt.Errorf("delete run %s: %w", r.RunID, err)
		}
		removed++
	}
	return removed, nil
}

// CheckFingerprint records checksum as the latest feature checksum for the
// pair (configHash, inputDigest). It returns the previous checksum and whether
// it differed. The first run of a pair never reports drift, so a log that
// grows between runs starts a new fingerprint instead of raising one.
func (s *RunStore) CheckFingerprint(ctx context.Context, configHash, inputDigest, checksum string) (previous string, drift bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	key := []byte(fingerprintKeyPrefix + configHash + ":" + inputDigest)

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get fingerprint: %w", err)
		default:
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read fingerprint: %w", err)
			}
			previous = string(val)
		}
		return txn.Set(key, []byte(checksum))
	})
	if err != nil {
		return "", false, err
	}
	return previous, previous != "" && !strings.EqualFold(previous, checksum), nil
}
