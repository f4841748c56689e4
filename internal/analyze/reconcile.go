package analyze

// reconcile.go - Per-run status reconciliation across step artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
)

// ArtifactFetcher retrieves run artifacts. Satisfied by *dbtcloud.Client.
type ArtifactFetcher interface {
	FetchManifest(ctx context.Context, runID int64) (*dbtcloud.Manifest, error)
	FetchRunResults(ctx context.Context, runID int64, step int) (*dbtcloud.RunResults, error)
	FetchRunSteps(ctx context.Context, runID int64) ([]dbtcloud.RunStep, error)
}

// StepResults pairs a step index with the results its artifact reported.
// A negative index marks the run's default (non-step-scoped) artifact.
type StepResults struct {
	StepIndex int
	Results   []dbtcloud.StepResult
}

// Reconcile merges step-scoped results into one canonical status record per
// model. Records whose manifest resource type is excluded (or missing, or
// not "model") are dropped. When the same id appears in several steps the
// most severe status wins (error > success > other) and the contributing
// step indices are unioned. Steps are processed in ascending index order so
// equal-severity ties resolve deterministically.
func Reconcile(manifest *dbtcloud.Manifest, stepResults []StepResults) []ModelStatusRecord {
	ordered := make([]StepResults, len(stepResults))
	copy(ordered, stepResults)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StepIndex < ordered[j].StepIndex })

	byID := make(map[string]*ModelStatusRecord)
	var order []string

	for _, step := range ordered {
		for _, result := range step.Results {
			node, ok := manifest.Nodes[result.UniqueID]
			if !ok {
				continue
			}
			if node.ResourceType == "" || excludedResourceTypes[node.ResourceType] {
				continue
			}
			if node.ResourceType != "model" {
				continue
			}

			existing, seen := byID[result.UniqueID]
			if !seen {
				startedAt, completedAt := result.ExecuteTiming()
				record := &ModelStatusRecord{
					UniqueID:      result.UniqueID,
					Name:          modelName(result.UniqueID),
					ResourceType:  node.ResourceType,
					Status:        result.Status,
					ExecutionTime: result.ExecutionTime,
					StartedAt:     startedAt,
					CompletedAt:   completedAt,
				}
				if step.StepIndex >= 0 {
					record.Steps = []int{step.StepIndex}
				}
				byID[result.UniqueID] = record
				order = append(order, result.UniqueID)
				continue
			}

			if step.StepIndex >= 0 {
				existing.Steps = append(existing.Steps, step.StepIndex)
			}
			if severity(result.Status) > severity(existing.Status) {
				existing.Status = result.Status
			}
		}
	}

	records := make([]ModelStatusRecord, 0, len(order))
	for _, id := range order {
		records = append(records, *byID[id])
	}
	return records
}

// RunAnalyzer reconciles single runs using a fetcher.
type RunAnalyzer struct {
	fetcher ArtifactFetcher
	logger  *slog.Logger
}

// NewRunAnalyzer creates an analyzer. A nil logger discards output.
func NewRunAnalyzer(fetcher ArtifactFetcher, logger *slog.Logger) *RunAnalyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RunAnalyzer{fetcher: fetcher, logger: logger}
}

// AnalyzeRun produces the reconciled RunRecord for one run.
//
// A manifest fetch failure is fatal for the run: resource types cannot be
// classified without it. Step listing failures fall back to the default
// run_results artifact, and individual step artifact failures are logged
// and skipped so the run degrades to whatever steps succeeded.
func (a *RunAnalyzer) AnalyzeRun(ctx context.Context, desc RunDescriptor) (*RunRecord, error) {
	manifest, err := a.fetcher.FetchManifest(ctx, desc.RunID)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", desc.RunID, err)
	}

	stepResults, err := a.collectStepResults(ctx, desc.RunID)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", desc.RunID, err)
	}

	record := &RunRecord{
		RunID:     desc.RunID,
		CreatedAt: desc.CreatedAt,
		JobID:     desc.JobID,
		JobName:   desc.JobName,
		RunStatus: desc.RunStatus,
		Models:    Reconcile(manifest, stepResults),
	}

	a.logger.Debug("reconciled run", "run_id", desc.RunID, "models", len(record.Models))
	return record, nil
}

// collectStepResults fetches run_results for every execute step, or the
// default artifact when no execute step can be identified.
func (a *RunAnalyzer) collectStepResults(ctx context.Context, runID int64) ([]StepResults, error) {
	runSteps, err := a.fetcher.FetchRunSteps(ctx, runID)
	if err != nil {
		a.logger.Warn("could not fetch run steps, falling back to default artifact",
			"run_id", runID, "error", err)
		return a.defaultResults(ctx, runID)
	}

	steps := make([]Step, 0, len(runSteps))
	for _, s := range runSteps {
		steps = append(steps, Step{Index: s.Index, Name: s.Name})
	}

	execute := ClassifySteps(steps)
	if len(execute) == 0 {
		a.logger.Warn("no run/build steps found, falling back to default artifact", "run_id", runID)
		return a.defaultResults(ctx, runID)
	}

	var collected []StepResults
	for _, step := range execute {
		results, err := a.fetcher.FetchRunResults(ctx, runID, step.Index)
		if err != nil {
			a.logger.Warn("skipping step with unavailable results",
				"run_id", runID, "step", step.Index, "error", err)
			continue
		}
		collected = append(collected, StepResults{StepIndex: step.Index, Results: results.Results})
	}
	return collected, nil
}

// defaultResults fetches the run's single default run_results artifact.
func (a *RunAnalyzer) defaultResults(ctx context.Context, runID int64) ([]StepResults, error) {
	results, err := a.fetcher.FetchRunResults(ctx, runID, -1)
	if err != nil {
		return nil, err
	}
	return []StepResults{{StepIndex: -1, Results: results.Results}}, nil
}
