// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package features

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/window"
)

// Table is the feature table of a run, one vector per historical customer in
// ascending customer id order.
type Table struct {
	Vectors []recommend.CustomerFeatureVector

	// Missing describes unresolved item ids. Nil when every item resolved.
	Missing *recommend.MissingDimensionError
}

// Lookup returns the vector of a customer using binary search.
func (t *Table) Lookup(customerID int64) (recommend.CustomerFeatureVector, bool) {
	i, ok := slices.BinarySearchFunc(t.Vectors, customerID, func(v recommend.CustomerFeatureVector, id int64) int {
		return cmp.Compare(v.CustomerID, id)
	})
	if !ok {
		return recommend.CustomerFeatureVector{}, false
	}
	return t.Vectors[i], true
}

// Checksum returns a SHA-256 over customer ids and the IEEE-754 bits of every
// feature value. Two runs agree on the checksum iff their tables are bit-identical.
func (t *Table) Checksum() string {
	h := sha256.New()
	buf := make([]byte, 8)
	for i := range t.Vectors {
		binary.LittleEndian.PutUint64(buf, uint64(t.Vectors[i].CustomerID)) //nolint:gosec // bit pattern only
		h.Write(buf)
		for _, v := range t.Vectors[i].Values() {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			h.Write(buf)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Engine derives customer features from the historical window.
type Engine struct {
	cfg     recommend.FeatureConfig
	workers int
	logger  zerolog.Logger
}

// NewEngine creates a feature engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *recommend.Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		cfg:     cfg.Features,
		workers: cfg.Limits.Workers,
		logger:  logger.With().Str("component", "features").Logger(),
	}, nil
}

// Compute indexes ds for w and derives the feature table.
func (e *Engine) Compute(ctx context.Context, ds *recommend.Dataset, w recommend.Windows) (*Table, error) {
	if err := window.Assert(w); err != nil {
		return nil, err
	}
	return e.ComputeSnapshot(ctx, recommend.NewSnapshot(ds, w))
}

// ComputeSnapshot derives the feature table from prebuilt indexes.
func (e *Engine) ComputeSnapshot(ctx context.Context, snap *recommend.Snapshot) (*Table, error) {
	if err := window.Assert(snap.Windows); err != nil {
		return nil, err
	}
	hist := snap.Historical

	missing := snap.Items.Missing(hist)
	if missing != nil {
		if e.cfg.MissingDimensionPolicy == recommend.MissingDimensionFail {
			return nil, missing
		}
		e.logger.Warn().
			Int("items", len(missing.ItemIDs)).
			Int("transactions", missing.Rows).
			Msg("historical transactions reference unknown items, treating attributes as absent")
	}

	vectors := make([]recommend.CustomerFeatureVector, hist.Len())
	err := recommend.ForEachBatch(ctx, hist.Len(), e.workers, func(_ context.Context, i int) error {
		vectors[i] = e.vector(hist.Customers[i], hist.Txns[i], snap.Items, hist.ItemCounts, hist.Window.End)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compute features: %w", err)
	}

	e.logger.Debug().
		Int("customers", len(vectors)).
		Int("transactions", hist.Rows).
		Msg("features computed")

	return &Table{Vectors: vectors, Missing: missing}, nil
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

// vector computes one customer's features. txns is non-empty and ordered by time.
func (e *Engine) vector(
	customerID int64,
	txns []recommend.Transaction,
	items *recommend.ItemIndex,
	popularity map[int64]int,
	end time.Time,
) recommend.CustomerFeatureVector {
	n := len(txns)
	brands := make(map[string]int)
	ageGroups := make(map[string]struct{})
	categories := make(map[string]struct{})
	days := make(map[dayKey]struct{})
	distinctItems := make(map[int64]struct{})
	var weekdays [7]int
	var popularitySum float64

	for i := range txns {
		tx := &txns[i]
		y, m, d := tx.Timestamp.Date()
		days[dayKey{y, m, d}] = struct{}{}
		distinctItems[tx.ItemID] = struct{}{}
		// Monday=0 .. Sunday=6
		weekdays[(int(tx.Timestamp.Weekday())+6)%7]++
		popularitySum += float64(popularity[tx.ItemID])

		it, ok := items.Item(tx.ItemID)
		if !ok {
			continue
		}
		if it.Brand != "" {
			brands[it.Brand]++
		}
		if it.AgeGroup != "" {
			ageGroups[it.AgeGroup] = struct{}{}
		}
		if it.Category != "" {
			categories[it.Category] = struct{}{}
		}
	}

	topBrand := 0
	for _, c := range brands {
		topBrand = max(topBrand, c)
	}

	modeDay := 0
	for wd := 1; wd < len(weekdays); wd++ {
		if weekdays[wd] > weekdays[modeDay] {
			modeDay = wd
		}
	}

	activeDays := float64(max(1, len(days)))
	last := txns[n-1].Timestamp

	return recommend.CustomerFeatureVector{
		CustomerID:            customerID,
		BrandCount:            float64(len(brands)),
		AgeGroupCount:         float64(len(ageGroups)),
		CategoryCount:         float64(len(categories)),
		DaysSinceLastPurchase: float64(end.Sub(last) / (24 * time.Hour)),
		PurchaseFrequency:     float64(n) / activeDays,
		IsPowerUser:           indicator(n >= e.cfg.PowerUserThreshold),
		AvgItemsPerDay:        float64(len(distinctItems)) / activeDays,
		TopBrandRatio:         float64(topBrand) / float64(n),
		BrandDiversity:        float64(len(brands)),
		CategoryDiversity:     float64(len(categories)) / float64(n),
		WeekdayMode:           float64(modeDay),
		IsNewCustomer:         indicator(n < e.cfg.NewCustomerThreshold),
		AvgItemPopularity:     popularitySum / float64(n),
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
