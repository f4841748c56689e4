package analyze

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
)

// fakeFetcher serves canned artifacts keyed by run id.
type fakeFetcher struct {
	manifests map[int64]*dbtcloud.Manifest
	steps     map[int64][]dbtcloud.RunStep
	// results is keyed by "runID/step"; step -1 is the default artifact
	results map[string]*dbtcloud.RunResults

	manifestErrs map[int64]error
	stepsErrs    map[int64]error
	resultErrs   map[string]error

	jobs       []dbtcloud.Job
	latest     map[int64]*dbtcloud.Run
	latestSucc map[int64]*dbtcloud.Run
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		manifests:    make(map[int64]*dbtcloud.Manifest),
		steps:        make(map[int64][]dbtcloud.RunStep),
		results:      make(map[string]*dbtcloud.RunResults),
		manifestErrs: make(map[int64]error),
		stepsErrs:    make(map[int64]error),
		resultErrs:   make(map[string]error),
		latest:       make(map[int64]*dbtcloud.Run),
		latestSucc:   make(map[int64]*dbtcloud.Run),
	}
}

func resultKey(runID int64, step int) string {
	return fmt.Sprintf("%d/%d", runID, step)
}

func (f *fakeFetcher) FetchManifest(_ context.Context, runID int64) (*dbtcloud.Manifest, error) {
	if err := f.manifestErrs[runID]; err != nil {
		return nil, err
	}
	m, ok := f.manifests[runID]
	if !ok {
		return nil, fmt.Errorf("no manifest for run %d", runID)
	}
	return m, nil
}

func (f *fakeFetcher) FetchRunSteps(_ context.Context, runID int64) ([]dbtcloud.RunStep, error) {
	if err := f.stepsErrs[runID]; err != nil {
		return nil, err
	}
	return f.steps[runID], nil
}

func (f *fakeFetcher) FetchRunResults(_ context.Context, runID int64, step int) (*dbtcloud.RunResults, error) {
	key := resultKey(runID, step)
	if err := f.resultErrs[key]; err != nil {
		return nil, err
	}
	r, ok := f.results[key]
	if !ok {
		return nil, fmt.Errorf("no results for run %d step %d", runID, step)
	}
	return r, nil
}

func (f *fakeFetcher) ListJobs(_ context.Context, _ int64) ([]dbtcloud.Job, error) {
	return f.jobs, nil
}

func (f *fakeFetcher) LatestRun(_ context.Context, jobID int64) (*dbtcloud.Run, error) {
	return f.latest[jobID], nil
}

func (f *fakeFetcher) LatestSuccessfulRun(_ context.Context, jobID int64) (*dbtcloud.Run, error) {
	return f.latestSucc[jobID], nil
}

// modelManifest builds a manifest whose nodes all have the given resource types.
func modelManifest(types map[string]string) *dbtcloud.Manifest {
	nodes := make(map[string]dbtcloud.ManifestNode, len(types))
	for id, rt := range types {
		nodes[id] = dbtcloud.ManifestNode{UniqueID: id, ResourceType: rt, Name: modelName(id)}
	}
	return &dbtcloud.Manifest{Nodes: nodes}
}
