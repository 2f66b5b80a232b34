// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package candidates

import (
	"slices"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Set is the merged candidate set of a run, grouped by customer.
// Customers is ascending and every pool is ascending by item id with one
// entry per item.
type Set struct {
	Customers []int64
	Pools     [][]recommend.Candidate

	// EmptyPools lists customers for which every enabled source came back empty.
	EmptyPools []int64
}

// Len returns the total number of candidate pairs.
func (s *Set) Len() int {
	n := 0
	for _, p := range s.Pools {
		n += len(p)
	}
	return n
}

// Pool returns the candidates of one customer.
func (s *Set) Pool(customerID int64) []recommend.Candidate {
	if i, ok := slices.BinarySearch(s.Customers, customerID); ok {
		return s.Pools[i]
	}
	return nil
}

// Flatten returns every candidate ordered by customer then item.
func (s *Set) Flatten() []recommend.Candidate {
	out := make([]recommend.Candidate, 0, s.Len())
	for _, p := range s.Pools {
		out = append(out, p...)
	}
	return out
}

// CountBySource counts pairs per source tag. A pair proposed by several
// sources is counted once under each of them.
func (s *Set) CountBySource() map[string]int {
	counts := make(map[string]int)
	for _, p := range s.Pools {
		for _, c := range p {
			for _, name := range c.Sources.Names() {
				counts[name]++
			}
		}
	}
	return counts
}

// Warnings returns one EmptyCandidatePoolError per empty pool.
func (s *Set) Warnings() []error {
	out := make([]error, 0, len(s.EmptyPools))
	for _, id := range s.EmptyPools {
		out = append(out, &recommend.EmptyCandidatePoolError{CustomerID: id})
	}
	return out
}
