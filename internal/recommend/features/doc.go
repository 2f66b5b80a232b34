// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package features derives a fixed-width numeric profile for every customer that
purchased inside the historical window.

# Features

The thirteen columns, in output order, are listed in recommend.FeatureNames.
Counts of brands, age groups and categories come from the item dimension.
Frequency features divide by the number of distinct active days, floored at 1.
is_power_user is set at or above the power-user threshold and is_new_customer
below the new-customer threshold. weekday_mode uses Monday=0 through Sunday=6
and resolves ties to the earliest weekday.

# Missing Dimension Rows

Transactions whose item has no dimension row still count toward frequency,
recency and popularity. Under the "zero" policy their brand, age group and
category are treated as absent and a warning is logged; under "fail" the
computation returns a *recommend.MissingDimensionError.

# Determinism

Customers are processed in index-addressed batches and each worker writes only
its own slots, so the table is identical for any worker count. Table.Checksum
hashes the raw float bits for idempotence checks across runs.
*/
package features
