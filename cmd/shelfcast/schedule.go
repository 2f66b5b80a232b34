// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/supervisor"
	"github.com/tomtom215/shelfcast/internal/supervisor/services"
)

func newScheduleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule under supervision",
		Long: `Starts the supervised daemon. The pipeline runs on schedule.cron (and once
at startup when schedule.run_on_start is set); metrics.listen serves
/metrics and /healthz. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			schedule, err := services.ParseSchedule(cfg.Schedule.Cron)
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			logger := logging.Logger()
			tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
			if err != nil {
				return err
			}

			job := services.JobFunc(func(ctx context.Context) error {
				_, err := a.runOnce(ctx)
				return err
			})
			tree.AddPipelineService(services.NewPipelineService(job, schedule, cfg.Schedule.RunOnStart, logger))
			tree.AddAPIService(services.NewHTTPService(cfg.Metrics.Listen, a.engine, logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Str("cron", cfg.Schedule.Cron).
				Str("listen", cfg.Metrics.Listen).
				Msg("starting supervisor tree")

			err = tree.Serve(ctx)
			if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
				for _, svc := range unstopped {
					logger.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
				}
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info().Msg("scheduler stopped")
			return nil
		},
	}
}
