// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline instrumentation:
// - stage latency (load, plan, features, candidates, labels, score, evaluate, persist)
// - input sizes and per-run output sizes
// - data-quality warnings (missing dimension rows, empty candidate pools)
// - evaluation results per metric and cutoff

var (
	// Stage Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfcast_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"stage"},
	)

	// Input Metrics
	RowsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfcast_rows_loaded",
			Help: "Rows loaded by the last run, per input table",
		},
		[]string{"table"}, // "transactions", "items", "users"
	)

	// Output Metrics
	CustomersProcessed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_customers_processed",
			Help: "Feature vectors produced by the last run",
		},
	)

	CandidatesBySource = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfcast_candidates",
			Help: "Candidate pairs produced by the last run, per source tag",
		},
		[]string{"source"},
	)

	CandidatesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_candidates_total",
			Help: "Deduplicated candidate pairs produced by the last run",
		},
	)

	PositiveRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_training_positive_rate",
			Help: "Share of positive labels in the last training frame",
		},
	)

	// Data Quality Metrics
	EmptyCandidatePools = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfcast_empty_candidate_pools_total",
			Help: "Total number of customers with an empty candidate pool",
		},
	)

	MissingDimensionItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfcast_missing_dimension_items_total",
			Help: "Total number of distinct historical items without a dimension row",
		},
	)

	// Evaluation Metrics
	EvaluationValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfcast_evaluation_value",
			Help: "Aggregated ranking metric of the last evaluated run",
		},
		[]string{"metric", "k"},
	)

	EvaluationCustomers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfcast_evaluation_customers",
			Help: "Customers contributing to each aggregated ranking metric",
		},
		[]string{"metric", "k"},
	)

	// Run Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "rejected"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shelfcast_run_duration_seconds",
			Help:    "Duration of complete pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 1800, 3600},
		},
	)

	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_run_last_success_timestamp",
			Help: "Unix timestamp of the last successful run",
		},
	)

	FeatureDrift = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfcast_feature_drift_total",
			Help: "Runs whose feature checksum differed from the previous run with the same config",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_events_published_total",
			Help: "Total number of run events published by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "circuit_open"
	)
)

// RecordStage records the duration of a pipeline stage.
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordRun records the outcome of a complete run.
func RecordRun(outcome string, duration time.Duration) {
	RunsTotal.WithLabelValues(outcome).Inc()
	if outcome != "success" {
		return
	}
	RunDuration.Observe(duration.Seconds())
	RunLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordEvaluation publishes one aggregated metric.
func RecordEvaluation(metric string, k int, value float64, customers int) {
	kl := strconv.Itoa(k)
	EvaluationValue.WithLabelValues(metric, kl).Set(value)
	EvaluationCustomers.WithLabelValues(metric, kl).Set(float64(customers))
}

// RecordCandidates publishes the per-source candidate counts of a run.
func RecordCandidates(total int, bySource map[string]int) {
	CandidatesTotal.Set(float64(total))
	for source, n := range bySource {
		CandidatesBySource.WithLabelValues(source).Set(float64(n))
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
