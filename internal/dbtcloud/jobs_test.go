package dbtcloud

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListJobs(t *testing.T) {
	var gotEnv string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEnv = r.URL.Query().Get("environment_id")
		_, _ = fmt.Fprint(w, `{
			"data": [
				{"id": 1, "name": "nightly", "environment_id": 9, "triggers": {"schedule": true}},
				{"id": 2, "name": "ci", "environment_id": 9, "cost_optimization_features": ["state_aware_orchestration"]}
			]
		}`)
	}))

	jobs, err := c.ListJobs(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "9", gotEnv)
	require.Len(t, jobs, 2)
	assert.Equal(t, "nightly", jobs[0].Name)
	assert.True(t, jobs[1].HasStateAwareOrchestration())
}

func TestListJobs_NoEnvironmentFilter(t *testing.T) {
	var hasEnv bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasEnv = r.URL.Query().Has("environment_id")
		_, _ = fmt.Fprint(w, `{"data": []}`)
	}))

	_, err := c.ListJobs(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, hasEnv)
}

func TestJobType(t *testing.T) {
	tests := []struct {
		name     string
		triggers *JobTriggers
		want     JobType
	}{
		{"no triggers", nil, JobTypeOther},
		{"scheduled", &JobTriggers{Schedule: true}, JobTypeScheduled},
		{"webhook on custom branch", &JobTriggers{GithubWebhook: true, CustomBranchOnly: true}, JobTypeCI},
		{"webhook on main", &JobTriggers{GithubWebhook: true}, JobTypeMerge},
		{"on merge", &JobTriggers{OnMerge: true}, JobTypeMerge},
		{"schedule wins over webhook", &JobTriggers{Schedule: true, GithubWebhook: true}, JobTypeScheduled},
		{"nothing set", &JobTriggers{}, JobTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := Job{Triggers: tt.triggers}
			assert.Equal(t, tt.want, job.Type())
		})
	}
}

func TestFilterJobsByType(t *testing.T) {
	jobs := []Job{
		{ID: 1, Triggers: &JobTriggers{Schedule: true}},
		{ID: 2, Triggers: &JobTriggers{GithubWebhook: true, CustomBranchOnly: true}},
		{ID: 3},
	}

	filtered := FilterJobsByType(jobs, []JobType{JobTypeScheduled, JobTypeOther})
	require.Len(t, filtered, 2)
	assert.Equal(t, int64(1), filtered[0].ID)
	assert.Equal(t, int64(3), filtered[1].ID)

	assert.Len(t, FilterJobsByType(jobs, nil), 3)
}

func TestSplitRunsBySAO(t *testing.T) {
	saoJob := &Job{ID: 1, CostOptimizationFeatures: []string{"state_aware_orchestration"}}
	plainJob := &Job{ID: 2}

	runs := []Run{
		{ID: 10, Job: saoJob},
		{ID: 11, Job: plainJob},
		{ID: 12},
	}

	sao, nonSAO := SplitRunsBySAO(runs)
	require.Len(t, sao, 1)
	assert.Equal(t, int64(10), sao[0].ID)
	assert.Len(t, nonSAO, 2)
}

func TestRunStatusName(t *testing.T) {
	assert.Equal(t, "success", RunStatusName(RunStatusSuccess))
	assert.Equal(t, "error", RunStatusName(RunStatusError))
	assert.Equal(t, "cancelled", RunStatusName(RunStatusCanceled))
	assert.Equal(t, "running", RunStatusName(RunStatusRunning))
	assert.Equal(t, "unknown", RunStatusName(99))
}
