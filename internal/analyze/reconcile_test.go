package analyze

import (
	"context"
	"testing"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
	"github.com/leapstack-labs/dbtlens/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_SingleStep(t *testing.T) {
	manifest := modelManifest(map[string]string{
		"model.proj.orders":    "model",
		"model.proj.customers": "model",
	})
	steps := []StepResults{
		{StepIndex: 1, Results: []dbtcloud.StepResult{
			{UniqueID: "model.proj.orders", Status: StatusSuccess, ExecutionTime: 12.5,
				Timing: []dbtcloud.TimingEntry{
					{Name: "compile", StartedAt: "2026-08-01T00:00:00Z", CompletedAt: "2026-08-01T00:00:01Z"},
					{Name: "execute", StartedAt: "2026-08-01T00:00:01Z", CompletedAt: "2026-08-01T00:00:13Z"},
				}},
			{UniqueID: "model.proj.customers", Status: StatusReused},
		}},
	}

	records := Reconcile(manifest, steps)
	require.Len(t, records, 2)

	byID := make(map[string]ModelStatusRecord)
	for _, r := range records {
		byID[r.UniqueID] = r
	}

	orders := byID["model.proj.orders"]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, StatusSuccess, orders.Status)
	assert.Equal(t, 12.5, orders.ExecutionTime)
	assert.Equal(t, "2026-08-01T00:00:01Z", orders.StartedAt)
	assert.Equal(t, "2026-08-01T00:00:13Z", orders.CompletedAt)
	assert.Equal(t, []int{1}, orders.Steps)

	customers := byID["model.proj.customers"]
	assert.Equal(t, StatusReused, customers.Status)
	assert.Zero(t, customers.ExecutionTime)
	assert.Empty(t, customers.StartedAt)
}

func TestReconcile_ExcludesNonModels(t *testing.T) {
	manifest := modelManifest(map[string]string{
		"model.proj.orders":  "model",
		"seed.proj.codes":    "seed",
		"test.proj.not_null": "test",
		"snapshot.proj.s1":   "snapshot",
	})
	steps := []StepResults{
		{StepIndex: 1, Results: []dbtcloud.StepResult{
			{UniqueID: "model.proj.orders", Status: StatusSuccess},
			{UniqueID: "seed.proj.codes", Status: StatusSuccess},
			{UniqueID: "test.proj.not_null", Status: StatusError},
			{UniqueID: "snapshot.proj.s1", Status: StatusSuccess},
			{UniqueID: "model.proj.unknown", Status: StatusSuccess}, // not in manifest
		}},
	}

	records := Reconcile(manifest, steps)
	require.Len(t, records, 1)
	assert.Equal(t, "model.proj.orders", records[0].UniqueID)
}

func TestReconcile_SeverityMerge(t *testing.T) {
	manifest := modelManifest(map[string]string{"model.proj.orders": "model"})

	errorAt1 := StepResults{StepIndex: 1, Results: []dbtcloud.StepResult{
		{UniqueID: "model.proj.orders", Status: StatusError},
	}}
	successAt2 := StepResults{StepIndex: 2, Results: []dbtcloud.StepResult{
		{UniqueID: "model.proj.orders", Status: StatusSuccess},
	}}

	// Error is sticky regardless of the order steps are supplied in.
	for name, steps := range map[string][]StepResults{
		"error first":   {errorAt1, successAt2},
		"success first": {successAt2, errorAt1},
	} {
		records := Reconcile(manifest, steps)
		require.Len(t, records, 1, name)
		assert.Equal(t, StatusError, records[0].Status, name)
		assert.Equal(t, []int{1, 2}, records[0].Steps, name)
	}
}

func TestReconcile_SuccessDoesNotDowngrade(t *testing.T) {
	manifest := modelManifest(map[string]string{"model.proj.orders": "model"})
	steps := []StepResults{
		{StepIndex: 1, Results: []dbtcloud.StepResult{{UniqueID: "model.proj.orders", Status: StatusSuccess}}},
		{StepIndex: 2, Results: []dbtcloud.StepResult{{UniqueID: "model.proj.orders", Status: StatusSkipped}}},
	}

	records := Reconcile(manifest, steps)
	require.Len(t, records, 1)
	assert.Equal(t, StatusSuccess, records[0].Status)
	assert.Equal(t, []int{1, 2}, records[0].Steps)
}

func TestReconcile_ReusedPromotesToSuccess(t *testing.T) {
	manifest := modelManifest(map[string]string{"model.proj.orders": "model"})
	steps := []StepResults{
		{StepIndex: 1, Results: []dbtcloud.StepResult{{UniqueID: "model.proj.orders", Status: StatusReused}}},
		{StepIndex: 2, Results: []dbtcloud.StepResult{{UniqueID: "model.proj.orders", Status: StatusSuccess}}},
	}

	records := Reconcile(manifest, steps)
	require.Len(t, records, 1)
	assert.Equal(t, StatusSuccess, records[0].Status)
}

func TestAnalyzeRun_StepBased(t *testing.T) {
	f := newFakeFetcher()
	f.manifests[42] = modelManifest(map[string]string{"model.proj.orders": "model"})
	f.steps[42] = []dbtcloud.RunStep{
		{Index: 1, Name: "Clone git repository"},
		{Index: 2, Name: "Invoke dbt with `dbt build --select state:modified`"},
	}
	f.results[resultKey(42, 2)] = &dbtcloud.RunResults{Results: []dbtcloud.StepResult{
		{UniqueID: "model.proj.orders", Status: StatusSuccess},
	}}

	a := NewRunAnalyzer(f, testutil.NewTestLogger(t))
	record, err := a.AnalyzeRun(context.Background(), RunDescriptor{RunID: 42, JobID: 7, JobName: "nightly"})
	require.NoError(t, err)

	assert.Equal(t, int64(42), record.RunID)
	assert.Equal(t, "nightly", record.JobName)
	require.Len(t, record.Models, 1)
	assert.Equal(t, []int{2}, record.Models[0].Steps)
}

func TestAnalyzeRun_FallsBackWhenNoExecuteSteps(t *testing.T) {
	f := newFakeFetcher()
	f.manifests[42] = modelManifest(map[string]string{"model.proj.orders": "model"})
	f.steps[42] = []dbtcloud.RunStep{{Index: 1, Name: "Clone git repository"}}
	f.results[resultKey(42, -1)] = &dbtcloud.RunResults{Results: []dbtcloud.StepResult{
		{UniqueID: "model.proj.orders", Status: StatusSuccess},
	}}

	a := NewRunAnalyzer(f, testutil.NewTestLogger(t))
	record, err := a.AnalyzeRun(context.Background(), RunDescriptor{RunID: 42})
	require.NoError(t, err)
	require.Len(t, record.Models, 1)
	assert.Empty(t, record.Models[0].Steps)
}

func TestAnalyzeRun_FallsBackWhenStepListingFails(t *testing.T) {
	f := newFakeFetcher()
	f.manifests[42] = modelManifest(map[string]string{"model.proj.orders": "model"})
	f.stepsErrs[42] = &dbtcloud.APIError{StatusCode: 500, Body: "boom"}
	f.results[resultKey(42, -1)] = &dbtcloud.RunResults{Results: []dbtcloud.StepResult{
		{UniqueID: "model.proj.orders", Status: StatusError},
	}}

	a := NewRunAnalyzer(f, testutil.NewTestLogger(t))
	record, err := a.AnalyzeRun(context.Background(), RunDescriptor{RunID: 42})
	require.NoError(t, err)
	require.Len(t, record.Models, 1)
	assert.Equal(t, StatusError, record.Models[0].Status)
}

func TestAnalyzeRun_SkipsFailedSteps(t *testing.T) {
	f := newFakeFetcher()
	f.manifests[42] = modelManifest(map[string]string{
		"model.proj.orders":    "model",
		"model.proj.customers": "model",
	})
	f.steps[42] = []dbtcloud.RunStep{
		{Index: 1, Name: "Invoke dbt with `dbt run --select tag:a`"},
		{Index: 2, Name: "Invoke dbt with `dbt run --select tag:b`"},
	}
	f.resultErrs[resultKey(42, 1)] = &dbtcloud.APIError{StatusCode: 404, Body: "missing"}
	f.results[resultKey(42, 2)] = &dbtcloud.RunResults{Results: []dbtcloud.StepResult{
		{UniqueID: "model.proj.customers", Status: StatusSuccess},
	}}

	a := NewRunAnalyzer(f, testutil.NewTestLogger(t))
	record, err := a.AnalyzeRun(context.Background(), RunDescriptor{RunID: 42})
	require.NoError(t, err)
	require.Len(t, record.Models, 1)
	assert.Equal(t, "model.proj.customers", record.Models[0].UniqueID)
}

func TestAnalyzeRun_ManifestFailureIsFatal(t *testing.T) {
	f := newFakeFetcher()
	f.manifestErrs[42] = &dbtcloud.APIError{StatusCode: 403, Body: "forbidden"}

	a := NewRunAnalyzer(f, testutil.NewTestLogger(t))
	_, err := a.AnalyzeRun(context.Background(), RunDescriptor{RunID: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 42")
}
