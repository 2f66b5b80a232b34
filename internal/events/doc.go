// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package events publishes run-completed notifications through Watermill.

Downstream jobs (model training, dashboards) subscribe to the topic instead
of polling the output directory. Two backends are available:

  - nats: core NATS publisher (JetStream disabled), for deployments
  - gochannel: in-process Watermill pub/sub, for tests and local runs

# Message Format

Payloads are JSON-encoded RunCompleted values. Each message carries its
event id as the Watermill UUID and the run id in the "run_id" metadata key.

# Resilience

Publishing goes through a circuit breaker. After repeated failures the
breaker opens and PublishRunCompleted returns ErrCircuitOpen without
touching the broker. The pipeline logs publish errors and never fails a run
because of them.
*/
package events
