// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package database reads pipeline inputs and writes run artifacts through DuckDB.

# Inputs

The three input tables can be Parquet globs, CSV files or tables that already
exist in the database file:

	db, err := database.New(database.Config{
	    Format:       database.FormatParquet,
	    Transactions: "/data/transactions/*.parquet",
	    Items:        "/data/items.parquet",
	}, logger)

Required columns:
  - transactions: customer_id, item_id, created_at (order_id optional)
  - items: item_id, brand, age_group, category
  - users: customer_id, date_of_birth

A source without a required column fails with a *MissingColumnsError before
any row is read. Rows with NULL keys are skipped; NULL item attributes load
as empty strings, which the feature engine treats as absent.

DB implements recommend.DataProvider.

# Artifacts

WriteFeatures, WriteCandidates and WriteTrainingFrame replace the
customer_features, candidates and training_frame tables. ExportParquet copies
any of them to a Parquet file:

	if err := db.ExportParquet(ctx, database.TableFeatures, "out/features.parquet"); err != nil {
	    return err
	}
*/
package database
