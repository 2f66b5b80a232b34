// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import "context"

// DataProvider loads the three input tables of a run. It is implemented by
// the DuckDB layer; tests use in-memory fixtures.
type DataProvider interface {
	// LoadTransactions returns every purchase row.
	LoadTransactions(ctx context.Context) ([]Transaction, error)

	// LoadItems returns the item dimension.
	LoadItems(ctx context.Context) ([]Item, error)

	// LoadUsers returns the user dimension. Providers without a users
	// source return an empty slice.
	LoadUsers(ctx context.Context) ([]User, error)
}

// StaticProvider serves a fixed Dataset.
type StaticProvider struct {
	Data *Dataset
}

// LoadTransactions implements DataProvider.
func (p StaticProvider) LoadTransactions(context.Context) ([]Transaction, error) {
	return p.Data.Transactions, nil
}

// LoadItems implements DataProvider.
func (p StaticProvider) LoadItems(context.Context) ([]Item, error) {
	return p.Data.Items, nil
}

// LoadUsers implements DataProvider.
func (p StaticProvider) LoadUsers(context.Context) ([]User, error) {
	return p.Data.Users, nil
}
