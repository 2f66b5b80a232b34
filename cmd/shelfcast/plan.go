// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfcast/internal/database"
	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/window"
)

func newPlanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the windows the current data would produce",
		Long: `Reads only the first and last transaction timestamps and prints the
historical, recent and holdout windows of the next run. Useful to check an
anchor date or window lengths before a long run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			rc, err := cfg.Pipeline.Recommend()
			if err != nil {
				return err
			}

			db, err := database.New(database.Config{
				Path:         cfg.Source.DuckDBPath,
				Threads:      cfg.Source.Threads,
				MaxMemory:    cfg.Source.MaxMemory,
				Format:       cfg.Source.Format,
				Transactions: cfg.Source.Transactions,
				Items:        cfg.Source.Items,
				Users:        cfg.Source.Users,
			}, logging.Logger())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			first, last, ok, err := db.LogSpan(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return recommend.NewConfigurationError(recommend.InvariantNonEmptySpan, "transaction log is empty")
			}

			windows, err := window.Plan(window.Span{First: first, Last: last}, rc.Windows)
			if err != nil {
				return err
			}
			return printWindows(cmd.OutOrStdout(), first, last, windows)
		},
	}
}

func printWindows(w io.Writer, first, last time.Time, windows recommend.Windows) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "log\t%s\t%s\t\n", first.Format(time.RFC3339), last.Format(time.RFC3339))
	for _, win := range windows.All() {
		days := int(win.Duration().Hours() / 24)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dd\n", win.Name, win.Start.Format(time.DateOnly), win.End.Format(time.DateOnly), days)
	}
	return tw.Flush()
}
