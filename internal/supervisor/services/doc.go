// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package services provides the suture.Service implementations of the daemon.

# Pipeline Service

PipelineService runs a Job on a cron schedule (robfig/cron standard syntax,
e.g. "0 3 * * *" or "@daily") and optionally once at startup. Each run gets
a fresh run id on its context. A failed run is logged and the service waits
for the next tick; only context cancellation ends Serve.

# HTTP Service

HTTPService serves a chi router with:
  - /metrics: the Prometheus registry
  - /healthz: JSON with the running flag and the last successful run

ListenAndServe errors are returned to the supervisor, which restarts the
service. Shutdown is bounded by the configured timeout.
*/
package services
