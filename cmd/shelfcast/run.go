// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfcast/internal/logging"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one batch run and write its artifacts",
		Long: `Loads the input tables, plans the windows, computes features, candidates
and labels, evaluates the configured scorer against the holdout window and
writes the artifacts to output.dir.

Example:
  shelfcast run --config config.yaml
  HOLDOUT_LENGTH_DAYS=14 shelfcast run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, _ = logging.ContextWithNewRunID(ctx)

			result, err := a.runOnce(ctx)
			if err != nil {
				return err
			}

			r := result.Report
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s finished in %s\n", r.RunID, r.Duration())
			fmt.Fprintf(out, "customers=%d candidates=%d positives=%d positive_rate=%.4f\n",
				r.Customers, r.Candidates, r.Positives, r.PositiveRate)
			for _, rep := range r.Evaluation {
				fmt.Fprintln(out, rep.String())
			}
			return nil
		},
	}
}
