// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package candidates proposes the (customer, item) pairs a scorer will rank.

# Sources

  - positive: pairs purchased in the recent window
  - popularity: the top-N historical items for every customer in the run
  - category: dimension items in the customer's historical categories,
    uniformly subsampled to a per-customer cap
  - cooccurrence: items sharing historical baskets with the customer's
    purchases (disabled by default)

Every source can be switched off independently.

# Merge

Pools are merged per customer and deduplicated on (customer, item). Source
tags are unioned into a recommend.SourceSet; no source takes precedence over
another and tags are provenance only.

Customers for which every enabled source is empty are listed in
Set.EmptyPools and reported as warnings, never as a run failure.
*/
package candidates
