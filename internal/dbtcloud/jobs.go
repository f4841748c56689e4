package dbtcloud

// jobs.go - Job listing and trigger-based filtering

import (
	"context"
	"fmt"
	"net/url"
)

// ListJobs fetches jobs for the account, optionally scoped to one environment.
func (c *Client) ListJobs(ctx context.Context, environmentID int64) ([]Job, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", apiMaxPageSize))
	if environmentID != 0 {
		params.Set("environment_id", fmt.Sprintf("%d", environmentID))
	}

	var envelope jobListEnvelope
	if err := c.getJSON(ctx, c.accountURL("jobs/", params), &envelope); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return envelope.Data, nil
}

// FilterJobsByType keeps only jobs whose trigger classification is in types.
// An empty types list keeps everything.
func FilterJobsByType(jobs []Job, types []JobType) []Job {
	if len(types) == 0 {
		return jobs
	}
	allowed := make(map[JobType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	var filtered []Job
	for _, job := range jobs {
		if allowed[job.Type()] {
			filtered = append(filtered, job)
		}
	}
	return filtered
}

// SplitRunsBySAO partitions runs by whether their job has State-Aware
// Orchestration enabled. Runs without an embedded job are treated as non-SAO.
func SplitRunsBySAO(runs []Run) (sao, nonSAO []Run) {
	for _, run := range runs {
		if run.Job != nil && run.Job.HasStateAwareOrchestration() {
			sao = append(sao, run)
		} else {
			nonSAO = append(nonSAO, run)
		}
	}
	return sao, nonSAO
}
