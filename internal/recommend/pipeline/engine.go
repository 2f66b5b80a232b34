// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/recommend/candidates"
	"github.com/tomtom215/shelfcast/internal/recommend/evaluation"
	"github.com/tomtom215/shelfcast/internal/recommend/features"
	"github.com/tomtom215/shelfcast/internal/recommend/labels"
	"github.com/tomtom215/shelfcast/internal/recommend/scoring"
	"github.com/tomtom215/shelfcast/internal/recommend/window"
	"github.com/tomtom215/shelfcast/internal/validation"
)

// Stage names used in logs and metrics.
const (
	StageLoad       = "load"
	StagePlan       = "plan"
	StageFeatures   = "features"
	StageCandidates = "candidates"
	StageLabels     = "labels"
	StageScore      = "score"
	StageEvaluate   = "evaluate"
)

// History persists run reports and the feature fingerprint of each
// (config, input) pair. storage.RunStore implements it.
type History interface {
	CheckFingerprint(ctx context.Context, configHash, inputDigest, checksum string) (previous string, drift bool, err error)
	Save(ctx context.Context, report *recommend.RunReport) error
	Prune(ctx context.Context, keep int) (int, error)
}

// Publisher announces completed runs.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, report *recommend.RunReport) error
}

// Ranking is the ordered item list of one customer.
type Ranking struct {
	CustomerID int64
	Items      []int64
}

// RunResult holds every output of a run.
type RunResult struct {
	Report     *recommend.RunReport
	Snapshot   *recommend.Snapshot
	Features   *features.Table
	Candidates *candidates.Set
	Frame      *labels.Frame

	// Rankings is ordered by customer id. Nil when no scorer is set.
	Rankings []Ranking
}

// Engine runs the batch pipeline. Only one run executes at a time.
type Engine struct {
	cfg    *recommend.Config
	logger zerolog.Logger

	features  *features.Engine
	generator *candidates.Generator

	provider    recommend.DataProvider
	scorer      scoring.Scorer
	history     History
	historyKeep int
	publisher   Publisher

	runMu      sync.Mutex
	running    atomic.Bool
	lastReport atomic.Pointer[recommend.RunReport]
}

// NewEngine creates a pipeline engine. A nil cfg uses recommend.DefaultConfig.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *recommend.Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = recommend.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.With().Str("component", "pipeline").Logger()
	fe, err := features.NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	gen, err := candidates.NewGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg.Clone(),
		logger:    log,
		features:  fe,
		generator: gen,
	}, nil
}

// SetDataProvider sets where input tables are loaded from.
func (e *Engine) SetDataProvider(dp recommend.DataProvider) {
	e.provider = dp
}

// SetScorer sets the model used to rank candidates for evaluation. Without a
// scorer the run stops after labeling.
func (e *Engine) SetScorer(s scoring.Scorer) {
	e.scorer = s
	if s != nil {
		e.logger.Info().Str("scorer", s.Name()).Msg("registered scorer")
	}
}

// SetHistory enables run persistence. keep > 0 prunes older runs after each save.
func (e *Engine) SetHistory(h History, keep int) {
	e.history = h
	e.historyKeep = keep
}

// SetPublisher enables run-completed events.
func (e *Engine) SetPublisher(p Publisher) {
	e.publisher = p
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *recommend.Config {
	return e.cfg.Clone()
}

// Running reports whether a run is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// LastReport returns the report of the last successful run, or nil.
func (e *Engine) LastReport() *recommend.RunReport {
	return e.lastReport.Load()
}

// Run executes one batch run. It returns recommend.ErrRunInProgress when
// another run holds the engine. A run ID already on ctx is reused.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	if !e.runMu.TryLock() {
		metrics.RecordRun("rejected", 0)
		return nil, recommend.ErrRunInProgress
	}
	defer e.runMu.Unlock()
	e.running.Store(true)
	defer e.running.Store(false)

	if e.provider == nil {
		return nil, fmt.Errorf("data provider not set")
	}

	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		ctx, runID = logging.ContextWithNewRunID(ctx)
	}
	ctx = logging.ContextWithLogger(ctx, e.logger)
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Limits.Timeout)
	defer cancel()

	start := time.Now()
	log := logging.Ctx(ctx)
	log.Info().Int("workers", e.cfg.Limits.Workers).Msg("run started")

	result, err := e.run(ctx, runID, start)
	if err != nil {
		metrics.RecordRun("failure", time.Since(start))
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("run failed")
		return nil, err
	}

	metrics.RecordRun("success", result.Report.Duration())
	e.lastReport.Store(result.Report)
	e.finish(ctx, result.Report)

	log.Info().
		Dur("duration", result.Report.Duration()).
		Int("customers", result.Report.Customers).
		Int("candidates", result.Report.Candidates).
		Float64("positive_rate", result.Report.PositiveRate).
		Msg("run completed")
	return result, nil
}

func (e *Engine) run(ctx context.Context, runID string, start time.Time) (*RunResult, error) {
	hash, err := e.cfg.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}
	report := &recommend.RunReport{RunID: runID, StartedAt: start.UTC(), ConfigHash: hash}

	var ds *recommend.Dataset
	if err := e.stage(ctx, StageLoad, func() error {
		ds, err = e.load(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	report.Transactions = len(ds.Transactions)
	report.Items = len(ds.Items)
	report.Users = len(ds.Users)

	var windows recommend.Windows
	if err := e.stage(ctx, StagePlan, func() error {
		span, _ := window.SpanOf(ds.Transactions)
		windows, err = window.Plan(span, e.cfg.Windows)
		return err
	}); err != nil {
		return nil, err
	}
	report.Windows = windows
	logWindows(logging.Ctx(ctx), windows)

	snap := recommend.NewSnapshot(ds, windows)
	report.InputDigest = snap.InputDigest()
	result := &RunResult{Report: report, Snapshot: snap}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.stage(gctx, StageFeatures, func() error {
			var ferr error
			result.Features, ferr = e.features.ComputeSnapshot(gctx, snap)
			return ferr
		})
	})
	g.Go(func() error {
		return e.stage(gctx, StageCandidates, func() error {
			var gerr error
			result.Candidates, gerr = e.generator.GenerateSnapshot(gctx, snap)
			return gerr
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Customers = len(result.Features.Vectors)
	report.FeatureChecksum = result.Features.Checksum()
	if result.Features.Missing != nil {
		report.MissingItems = len(result.Features.Missing.ItemIDs)
	}
	report.Candidates = result.Candidates.Len()
	report.CandidatesBySource = result.Candidates.CountBySource()
	report.EmptyPools = slices.Clone(result.Candidates.EmptyPools)

	if err := e.stage(ctx, StageLabels, func() error {
		result.Frame, err = labels.AssignSnapshot(ctx, result.Candidates, snap, e.cfg.Limits.Workers)
		return err
	}); err != nil {
		return nil, err
	}
	report.Positives = result.Frame.Positives
	report.PositiveRate = result.Frame.PositiveRate()

	if e.scorer != nil {
		report.Scorer = e.scorer.Name()
		if err := e.stage(ctx, StageScore, func() error {
			result.Rankings, err = e.rank(ctx, snap, result.Features, result.Candidates)
			return err
		}); err != nil {
			return nil, err
		}
		_ = e.stage(ctx, StageEvaluate, func() error {
			report.Evaluation = evaluation.EvaluateAll(Records(result.Rankings, snap.Holdout), e.cfg.Evaluation.Cutoffs())
			return nil
		})
	}

	report.FinishedAt = time.Now().UTC()
	e.record(report)
	return result, nil
}

// load fetches and validates the three input tables.
func (e *Engine) load(ctx context.Context) (*recommend.Dataset, error) {
	txns, err := e.provider.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	items, err := e.provider.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	users, err := e.provider.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	if verr := validation.ValidateRows("transactions", txns); verr != nil {
		return nil, verr
	}
	if verr := validation.ValidateRows("items", items); verr != nil {
		return nil, verr
	}
	if verr := validation.ValidateRows("users", users); verr != nil {
		return nil, verr
	}

	metrics.RowsLoaded.WithLabelValues("transactions").Set(float64(len(txns)))
	metrics.RowsLoaded.WithLabelValues("items").Set(float64(len(items)))
	metrics.RowsLoaded.WithLabelValues("users").Set(float64(len(users)))

	return &recommend.Dataset{Transactions: txns, Items: items, Users: users}, nil
}

// rank scores every candidate pool and keeps the top max(cutoffs) items.
// Customers without a historical profile are scored with a zero vector.
func (e *Engine) rank(ctx context.Context, snap *recommend.Snapshot, table *features.Table, set *candidates.Set) ([]Ranking, error) {
	if p, ok := e.scorer.(scoring.Preparer); ok {
		if err := p.Prepare(ctx, snap); err != nil {
			return nil, fmt.Errorf("prepare scorer %s: %w", e.scorer.Name(), err)
		}
	}

	cutoffs := e.cfg.Evaluation.Cutoffs()
	depth := cutoffs[len(cutoffs)-1]

	rankings := make([]Ranking, len(set.Customers))
	err := recommend.ForEachBatch(ctx, len(set.Customers), e.cfg.Limits.Workers, func(ctx context.Context, i int) error {
		customerID := set.Customers[i]
		vec, ok := table.Lookup(customerID)
		if !ok {
			vec = recommend.CustomerFeatureVector{CustomerID: customerID}
		}

		pool := set.Pools[i]
		scored := make([]recommend.ScoredCandidate, len(pool))
		for j, c := range pool {
			s, err := e.scorer.Score(ctx, vec, c)
			if err != nil {
				return fmt.Errorf("score customer %d item %d: %w", c.CustomerID, c.ItemID, err)
			}
			scored[j] = recommend.ScoredCandidate{Candidate: c, Score: s}
		}
		rankings[i] = Ranking{CustomerID: customerID, Items: scoring.ItemIDs(scoring.TopK(scored, depth))}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rankings, nil
}

// Records joins rankings with the holdout ground truth. Every ranked customer
// and every holdout customer gets a record; a holdout customer without a
// ranking is evaluated against an empty list.
func Records(rankings []Ranking, holdout *recommend.Partition) []evaluation.Record {
	ranked := make(map[int64][]int64, len(rankings))
	ids := make([]int64, 0, len(rankings)+holdout.Len())
	for _, r := range rankings {
		ranked[r.CustomerID] = r.Items
		ids = append(ids, r.CustomerID)
	}
	ids = append(ids, holdout.Customers...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	records := make([]evaluation.Record, len(ids))
	for i, id := range ids {
		var truth []int64
		if txns, ok := holdout.Lookup(id); ok {
			truth = make([]int64, len(txns))
			for j, tx := range txns {
				truth[j] = tx.ItemID
			}
		}
		records[i] = evaluation.NewRecord(id, ranked[id], truth)
	}
	return records
}

// stage times fn and records it under name.
func (e *Engine) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStage(name, d, err)

	log := logging.Ctx(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Error().Err(err).Str("stage", name).Dur("duration", d).Msg("stage failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug().Str("stage", name).Dur("duration", d).Msg("stage completed")
	return nil
}

// record publishes the run gauges.
func (e *Engine) record(r *recommend.RunReport) {
	metrics.CustomersProcessed.Set(float64(r.Customers))
	metrics.RecordCandidates(r.Candidates, r.CandidatesBySource)
	metrics.PositiveRate.Set(r.PositiveRate)
	metrics.EmptyCandidatePools.Add(float64(len(r.EmptyPools)))
	metrics.MissingDimensionItems.Add(float64(r.MissingItems))
	for _, rep := range r.Evaluation {
		for name, agg := range rep.Metrics() {
			metrics.RecordEvaluation(name, rep.K, agg.Value, agg.Customers)
		}
	}
}

// finish runs the optional history and event hooks. Their failures are
// logged and never fail the run.
func (e *Engine) finish(ctx context.Context, r *recommend.RunReport) {
	log := logging.Ctx(ctx)

	if e.history != nil {
		prev, drift, err := e.history.CheckFingerprint(ctx, r.ConfigHash, r.InputDigest, r.FeatureChecksum)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("feature fingerprint check failed")
		case drift:
			metrics.FeatureDrift.Inc()
			log.Warn().
				Str("config_hash", r.ConfigHash).
				Str("input_digest", r.InputDigest).
				Str("previous", prev).
				Str("current", r.FeatureChecksum).
				Msg("feature table differs from the previous run with the same config and inputs")
		}

		if err := e.history.Save(ctx, r); err != nil {
			log.Warn().Err(err).Msg("failed to save run report")
		} else if e.historyKeep > 0 {
			if n, err := e.history.Prune(ctx, e.historyKeep); err != nil {
				log.Warn().Err(err).Msg("failed to prune run history")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("pruned run history")
			}
		}
	}

	if e.publisher != nil {
		if err := e.publisher.PublishRunCompleted(ctx, r); err != nil {
			log.Warn().Err(err).Msg("failed to publish run event")
		}
	}
}

func logWindows(log *zerolog.Logger, w recommend.Windows) {
	for _, win := range w.All() {
		log.Info().
			Str("window", string(win.Name)).
			Time("start", win.Start).
			Time("end", win.End).
			Msg("window planned")
	}
}
