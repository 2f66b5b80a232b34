// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package evaluation computes top-K ranking metrics against holdout purchases.

# Metrics

  - Precision@K: hits in the first K ranked items divided by K
  - Recall@K: hits divided by the number of ground-truth items
  - NDCG@K: discounted gain 1/log2(rank+1), normalized by the ideal ordering
  - F1@K: harmonic mean of precision and recall
  - MAP@K: mean average precision

# Denominators

Customers with no holdout purchases contribute 0 to precision and are left
out of every other metric. Each Aggregate carries the number of customers it
was averaged over, so reports from runs with different holdout coverage stay
comparable.
*/
package evaluation
