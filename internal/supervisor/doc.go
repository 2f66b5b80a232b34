// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package supervisor runs the scheduled daemon under a suture v4 tree.

# Overview

	shelfcast
	├── pipeline-layer
	│   └── PipelineService (cron schedule, optional run on start)
	└── api-layer
	    └── HTTPService (/metrics, /healthz)

Services that return an error are restarted with backoff. Supervisor events
(restarts, backoff, shutdown timeouts) are logged through sutureslog, bridged
to zerolog by logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddPipelineService(services.NewPipelineService(job, schedule, true, logger))
	tree.AddAPIService(services.NewHTTPService(":9464", engine, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

See the services package for the individual services.
*/
package supervisor
