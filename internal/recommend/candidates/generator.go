// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package candidates

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/window"
)

// maxLoggedEmptyPools caps the per-customer warnings logged at warn level.
const maxLoggedEmptyPools = 20

// Generator builds the candidate set of a run.
type Generator struct {
	cfg     recommend.CandidateConfig
	seed    int64
	workers int
	logger  zerolog.Logger
}

// NewGenerator creates a candidate generator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGenerator(cfg *recommend.Config, logger zerolog.Logger) (*Generator, error) {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Generator{
		cfg:     cfg.Candidates,
		seed:    seed,
		workers: cfg.Limits.Workers,
		logger:  logger.With().Str("component", "candidates").Logger(),
	}, nil
}

// Generate indexes ds for w and builds the candidate set.
func (g *Generator) Generate(ctx context.Context, ds *recommend.Dataset, w recommend.Windows) (*Set, error) {
	if err := window.Assert(w); err != nil {
		return nil, err
	}
	return g.GenerateSnapshot(ctx, recommend.NewSnapshot(ds, w))
}

// GenerateSnapshot builds the candidate set from prebuilt indexes. The run
// universe is every customer that purchased in the historical or recent window.
func (g *Generator) GenerateSnapshot(ctx context.Context, snap *recommend.Snapshot) (*Set, error) {
	if err := window.Assert(snap.Windows); err != nil {
		return nil, err
	}

	customers := universe(snap.Historical, snap.Recent)

	var popular []int64
	if g.cfg.EnablePopularity {
		popular = topItems(snap.Historical.ItemCounts, g.cfg.PopularityTopN)
	}
	var graph cooccurrence
	if g.cfg.EnableCooccurrence {
		graph = buildCooccurrence(snap.Historical)
	}

	pools := make([][]recommend.Candidate, len(customers))
	err := recommend.ForEachBatch(ctx, len(customers), g.workers, func(_ context.Context, i int) error {
		pools[i] = g.pool(customers[i], snap, popular, graph)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	set := &Set{Customers: customers, Pools: pools}
	for i, p := range pools {
		if len(p) == 0 {
			set.EmptyPools = append(set.EmptyPools, customers[i])
		}
	}

	if n := len(set.EmptyPools); n > 0 {
		warnings := errors.Join(set.Warnings()...)
		if n > maxLoggedEmptyPools {
			// Full list at debug; the warning carries the count and a prefix.
			g.logger.Debug().Err(warnings).Msg("empty candidate pools")
			g.logger.Warn().
				Int("customers", n).
				Ints64("first_customers", set.EmptyPools[:maxLoggedEmptyPools]).
				Msg("customers with empty candidate pools")
		} else {
			g.logger.Warn().
				Err(warnings).
				Int("customers", n).
				Msg("customers with empty candidate pools")
		}
	}
	g.logger.Debug().
		Int("customers", len(customers)).
		Int("candidates", set.Len()).
		Int("popular_items", len(popular)).
		Msg("candidates generated")

	return set, nil
}

// pool merges every enabled source for one customer.
func (g *Generator) pool(
	customerID int64,
	snap *recommend.Snapshot,
	popular []int64,
	graph cooccurrence,
) []recommend.Candidate {
	tags := make(map[int64]recommend.SourceSet)
	add := func(items []int64, tag recommend.SourceSet) {
		for _, id := range items {
			tags[id] |= tag
		}
	}

	if g.cfg.EnablePositive {
		if i, ok := position(snap.Recent, customerID); ok {
			add(snap.Recent.Items(i), recommend.SourcePositive)
		}
	}
	if g.cfg.EnablePopularity {
		add(popular, recommend.SourcePopularity)
	}

	hi, inHistory := position(snap.Historical, customerID)
	if g.cfg.EnableCategory && inHistory {
		add(g.categoryItems(customerID, snap.Historical.Txns[hi], snap.Items), recommend.SourceCategory)
	}
	if g.cfg.EnableCooccurrence && inHistory {
		add(graph.topFor(snap.Historical.Items(hi), g.cfg.CooccurrenceTopN), recommend.SourceCooccurrence)
	}

	out := make([]recommend.Candidate, 0, len(tags))
	for id, t := range tags {
		out = append(out, recommend.Candidate{CustomerID: customerID, ItemID: id, Sources: t})
	}
	slices.SortFunc(out, func(a, b recommend.Candidate) int { return cmp.Compare(a.ItemID, b.ItemID) })
	return out
}

// categoryItems returns dimension items in the customer's historical
// categories, subsampled uniformly to the per-customer cap. The stream is
// seeded from the run seed and the customer id, so the sample does not depend
// on worker scheduling.
func (g *Generator) categoryItems(customerID int64, txns []recommend.Transaction, items *recommend.ItemIndex) []int64 {
	cats := make(map[string]struct{})
	for i := range txns {
		if it, ok := items.Item(txns[i].ItemID); ok && it.Category != "" {
			cats[it.Category] = struct{}{}
		}
	}
	if len(cats) == 0 {
		return nil
	}

	var pool []int64
	for cat := range cats {
		pool = append(pool, items.CategoryItems(cat)...)
	}
	// Categories are disjoint, so the pool has no duplicates; sorting fixes
	// the order map iteration left behind.
	slices.Sort(pool)

	limit := g.cfg.CategoryCapPerCustomer
	if len(pool) <= limit {
		return pool
	}

	rng := rand.New(rand.NewPCG(uint64(g.seed), uint64(customerID))) //nolint:gosec // sampling only, not security sensitive
	for i := 0; i < limit; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	sample := pool[:limit]
	slices.Sort(sample)
	return sample
}

// topItems returns the n most purchased items, ties broken by ascending item id.
func topItems(counts map[int64]int, n int) []int64 {
	type itemCount struct {
		id    int64
		count int
	}
	ranked := make([]itemCount, 0, len(counts))
	for id, c := range counts {
		ranked = append(ranked, itemCount{id, c})
	}
	slices.SortFunc(ranked, func(a, b itemCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]int64, len(ranked))
	for i, r := range ranked {
		out[i] = r.id
	}
	return out
}

// universe merges the customer lists of two partitions in ascending order.
func universe(a, b *recommend.Partition) []int64 {
	out := make([]int64, 0, len(a.Customers)+len(b.Customers))
	out = append(out, a.Customers...)
	out = append(out, b.Customers...)
	slices.Sort(out)
	return slices.Compact(out)
}

func position(p *recommend.Partition, customerID int64) (int, bool) {
	return slices.BinarySearch(p.Customers, customerID)
}
