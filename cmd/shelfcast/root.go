// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfcast/internal/config"
	"github.com/tomtom215/shelfcast/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "shelfcast",
		Short: "Purchase prediction feature and candidate pipeline",
		Long: `Shelfcast builds a leakage-free training frame from a transaction log.

The log is split into historical, recent and holdout windows. Features and
candidates come from the historical window, labels from the recent window
and evaluation ground truth from the holdout window.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: $SHELFCAST_CONFIG or ./config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(flags),
		newPlanCmd(flags),
		newEvaluateCmd(flags),
		newScheduleCmd(flags),
	)
	return root
}

// loadConfig loads the configuration and initializes the global logger.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		if !logging.ValidLevel(flags.logLevel) {
			return nil, fmt.Errorf("invalid --log-level %q", flags.logLevel)
		}
		cfg.Logging.Level = flags.logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}
