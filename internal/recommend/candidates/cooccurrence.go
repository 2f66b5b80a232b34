// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package candidates

import (
	"cmp"
	"slices"
	"time"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// itemPair is an unordered item pair stored with a < b.
type itemPair struct {
	a, b int64
}

// neighbor is an item co-purchased with another, with the number of shared baskets.
type neighbor struct {
	item  int64
	count int
}

// basketKey identifies a basket inside one customer's history: the order id
// when the source has one, otherwise the purchase day.
type basketKey struct {
	order int64
	year  int
	month time.Month
	day   int
}

func keyOf(tx *recommend.Transaction) basketKey {
	if tx.OrderID != 0 {
		return basketKey{order: tx.OrderID}
	}
	y, m, d := tx.Timestamp.Date()
	return basketKey{year: y, month: m, day: d}
}

// cooccurrence maps each item to the items that share baskets with it.
type cooccurrence map[int64][]neighbor

// buildCooccurrence counts, for every unordered pair of distinct items, the
// number of historical baskets containing both.
func buildCooccurrence(hist *recommend.Partition) cooccurrence {
	pairs := make(map[itemPair]int)
	for _, txns := range hist.Txns {
		baskets := make(map[basketKey][]int64)
		for i := range txns {
			k := keyOf(&txns[i])
			baskets[k] = append(baskets[k], txns[i].ItemID)
		}
		for _, items := range baskets {
			slices.Sort(items)
			items = slices.Compact(items)
			for i := 0; i < len(items); i++ {
				for j := i + 1; j < len(items); j++ {
					pairs[itemPair{items[i], items[j]}]++
				}
			}
		}
	}

	graph := make(cooccurrence)
	for p, n := range pairs {
		graph[p.a] = append(graph[p.a], neighbor{item: p.b, count: n})
		graph[p.b] = append(graph[p.b], neighbor{item: p.a, count: n})
	}
	for id := range graph {
		slices.SortFunc(graph[id], func(x, y neighbor) int { return cmp.Compare(x.item, y.item) })
	}
	return graph
}

// topFor sums co-occurrence counts over the customer's purchased items and
// returns the n best items, ties broken by ascending item id.
func (g cooccurrence) topFor(purchased []int64, n int) []int64 {
	scores := make(map[int64]int)
	for _, id := range purchased {
		for _, nb := range g[id] {
			scores[nb.item] += nb.count
		}
	}
	ranked := make([]neighbor, 0, len(scores))
	for id, s := range scores {
		ranked = append(ranked, neighbor{item: id, count: s})
	}
	slices.SortFunc(ranked, func(x, y neighbor) int {
		if c := cmp.Compare(y.count, x.count); c != 0 {
			return c
		}
		return cmp.Compare(x.item, y.item)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]int64, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out
}
