// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfcast/internal/export"
	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/evaluation"
)

func newEvaluateCmd(flags *globalFlags) *cobra.Command {
	var (
		submissionPath  string
		groundTruthPath string
		ks              []int
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a submission JSON against ground truth",
		Long: `Computes precision, recall, NDCG, F1 and MAP at every cutoff for a
submission file ({"<customer_id>": ["<item_id>", ...]}) against a ground
truth file in the same format. Cutoffs default to evaluation.k and
evaluation.k_values from the configuration.

Example:
  shelfcast evaluate --submission out/submission.json --ground-truth out/groundtruth.json
  shelfcast evaluate --submission sub.json --ground-truth gt.json --k 10 --k 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if submissionPath == "" || groundTruthPath == "" {
				return errors.New("--submission and --ground-truth are required")
			}

			cutoffs := recommend.EvaluationConfig{K: cfg.Pipeline.Evaluation.K, KValues: cfg.Pipeline.Evaluation.KValues}.Cutoffs()
			if len(ks) > 0 {
				cutoffs = recommend.EvaluationConfig{K: ks[0], KValues: ks[1:]}.Cutoffs()
			}
			for _, k := range cutoffs {
				if k < 1 {
					return fmt.Errorf("cutoff must be positive, got %d", k)
				}
			}

			pred, err := export.ReadSubmission(submissionPath)
			if err != nil {
				return err
			}
			truth, err := export.ReadSubmission(groundTruthPath)
			if err != nil {
				return err
			}

			records := export.Records(pred, truth)
			logging.Info().
				Int("predicted", len(pred)).
				Int("ground_truth", len(truth)).
				Int("records", len(records)).
				Msg("evaluating submission")

			for _, rep := range evaluation.EvaluateAll(records, cutoffs) {
				fmt.Fprintln(cmd.OutOrStdout(), rep.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&submissionPath, "submission", "", "submission JSON to evaluate")
	cmd.Flags().StringVar(&groundTruthPath, "ground-truth", "", "ground truth JSON in submission format")
	cmd.Flags().IntSliceVar(&ks, "k", nil, "cutoff (repeatable); overrides the configured cutoffs")
	return cmd
}
