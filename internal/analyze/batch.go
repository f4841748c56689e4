package analyze

// batch.go - Bounded-concurrency batch orchestration across runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps how many runs are reconciled simultaneously.
const DefaultConcurrency = 10

// BatchResult carries the outcome of one batch analysis: the runs that
// reconciled successfully and the per-run failures. Failures never abort
// the batch; callers report both sides.
type BatchResult struct {
	Records  []RunRecord
	Failures []RunFailure
}

// Attempted returns the total number of runs the batch tried to analyze.
func (b *BatchResult) Attempted() int {
	return len(b.Records) + len(b.Failures)
}

// AllModels flattens the per-run model records in run order.
func (b *BatchResult) AllModels() []ModelStatusRecord {
	var all []ModelStatusRecord
	for _, record := range b.Records {
		all = append(all, record.Models...)
	}
	return all
}

// BatchAnalyzer fans reconciliation out across many runs.
type BatchAnalyzer struct {
	runs        *RunAnalyzer
	concurrency int
	logger      *slog.Logger
}

// NewBatchAnalyzer creates a batch analyzer. A non-positive concurrency
// uses DefaultConcurrency; a nil logger discards output.
func NewBatchAnalyzer(runs *RunAnalyzer, concurrency int, logger *slog.Logger) *BatchAnalyzer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BatchAnalyzer{runs: runs, concurrency: concurrency, logger: logger}
}

// AnalyzeRuns reconciles every descriptor with at most the configured number
// in flight. Each run is a single attempt: a failure is recorded against its
// run id and its siblings continue. The batch errors only when every run
// failed, returning a summary of all causes.
func (b *BatchAnalyzer) AnalyzeRuns(ctx context.Context, descriptors []RunDescriptor) (*BatchResult, error) {
	result := &BatchResult{}
	if len(descriptors) == 0 {
		return result, nil
	}

	b.logger.Info("analyzing runs", "count", len(descriptors), "concurrency", b.concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, desc := range descriptors {
		g.Go(func() error {
			record, err := b.runs.AnalyzeRun(gctx, desc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Warn("run analysis failed", "run_id", desc.RunID, "error", err)
				result.Failures = append(result.Failures, RunFailure{RunID: desc.RunID, Err: err})
				return nil
			}
			result.Records = append(result.Records, *record)
			return nil
		})
	}

	// Workers never return errors; Wait only propagates ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Collection order depends on completion order; restore input order.
	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].RunID > result.Records[j].RunID
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].RunID > result.Failures[j].RunID
	})

	if len(result.Records) == 0 && len(result.Failures) > 0 {
		errs := make([]error, 0, len(result.Failures))
		for _, f := range result.Failures {
			errs = append(errs, f.Err)
		}
		return nil, fmt.Errorf("all %d runs failed to analyze: %w", len(result.Failures), errors.Join(errs...))
	}

	b.logger.Info("batch complete",
		"succeeded", len(result.Records), "failed", len(result.Failures))
	return result, nil
}
