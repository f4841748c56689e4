package dbtcloud

import "encoding/json"

// Manifest is the static resource-metadata snapshot produced by one run.
// Only the fields needed for status reconciliation and freshness analysis
// are decoded; everything else in the artifact is ignored.
type Manifest struct {
	Nodes   map[string]ManifestNode `json:"nodes"`
	Sources map[string]SourceNode   `json:"sources"`
}

// ManifestNode describes a single node (model, seed, test, ...) in the manifest.
type ManifestNode struct {
	UniqueID     string          `json:"unique_id"`
	Name         string          `json:"name"`
	ResourceType string          `json:"resource_type"`
	PackageName  string          `json:"package_name"`
	Config       NodeConfig      `json:"config"`
	Freshness    json.RawMessage `json:"freshness"`
}

// NodeConfig holds the subset of node configuration dbtlens reads.
// Freshness is kept raw because its shape varies between node kinds.
type NodeConfig struct {
	Materialized string          `json:"materialized"`
	Freshness    json.RawMessage `json:"freshness"`
}

// SourceNode describes a source entry in the manifest. Sources carry their
// freshness config at the top level rather than under config.
type SourceNode struct {
	UniqueID     string          `json:"unique_id"`
	Name         string          `json:"name"`
	ResourceType string          `json:"resource_type"`
	Freshness    json.RawMessage `json:"freshness"`
}

// RunResults is the run_results.json artifact, optionally scoped to one step.
type RunResults struct {
	Results []StepResult `json:"results"`
}

// StepResult is the execution record for one node within one step.
type StepResult struct {
	UniqueID      string        `json:"unique_id"`
	Status        string        `json:"status"`
	ExecutionTime float64       `json:"execution_time"`
	Timing        []TimingEntry `json:"timing"`
}

// TimingEntry is one phase of a node's execution. The entry named "execute"
// carries the authoritative start/end timestamps.
type TimingEntry struct {
	Name        string `json:"name"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`
}

// ExecuteTiming returns the started/completed timestamps of the "execute"
// timing entry, or empty strings when no such entry exists.
func (r *StepResult) ExecuteTiming() (startedAt, completedAt string) {
	for _, t := range r.Timing {
		if t.Name == "execute" {
			return t.StartedAt, t.CompletedAt
		}
	}
	return "", ""
}

// RunStep is one ordinal phase within a run.
type RunStep struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}

// Run status codes used by the dbt Cloud Admin API.
const (
	RunStatusQueued   = 1
	RunStatusStarting = 2
	RunStatusRunning  = 3
	RunStatusSuccess  = 10
	RunStatusError    = 20
	RunStatusCanceled = 30
)

// RunStatusName converts an Admin API status code to a readable name.
func RunStatusName(code int) string {
	switch code {
	case RunStatusQueued:
		return "queued"
	case RunStatusStarting:
		return "starting"
	case RunStatusRunning:
		return "running"
	case RunStatusSuccess:
		return "success"
	case RunStatusError:
		return "error"
	case RunStatusCanceled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Run is a single execution of a job as reported by the Admin API.
type Run struct {
	ID              int64     `json:"id"`
	JobDefinitionID int64     `json:"job_definition_id"`
	Status          int       `json:"status"`
	CreatedAt       string    `json:"created_at"`
	FinishedAt      string    `json:"finished_at"`
	Job             *Job      `json:"job"`
	RunSteps        []RunStep `json:"run_steps"`
}

// InFlight reports whether the run has not yet reached a terminal status.
func (r *Run) InFlight() bool {
	return r.Status == RunStatusQueued || r.Status == RunStatusStarting || r.Status == RunStatusRunning
}

// Job is a job definition as reported by the Admin API.
type Job struct {
	ID                       int64        `json:"id"`
	Name                     string       `json:"name"`
	EnvironmentID            int64        `json:"environment_id"`
	Triggers                 *JobTriggers `json:"triggers"`
	CostOptimizationFeatures []string     `json:"cost_optimization_features"`
}

// JobTriggers describes how a job is launched.
type JobTriggers struct {
	Schedule         bool `json:"schedule"`
	GithubWebhook    bool `json:"github_webhook"`
	OnMerge          bool `json:"on_merge"`
	CustomBranchOnly bool `json:"custom_branch_only"`
}

// JobType classifies a job by its trigger configuration.
type JobType string

// Job type classifications.
const (
	JobTypeCI        JobType = "ci"
	JobTypeMerge     JobType = "merge"
	JobTypeScheduled JobType = "scheduled"
	JobTypeOther     JobType = "other"
)

// Type returns the job's classification: scheduled jobs run on a schedule,
// webhook-triggered jobs are CI when restricted to custom branches and merge
// jobs otherwise, and everything else is "other".
func (j *Job) Type() JobType {
	t := j.Triggers
	if t == nil {
		return JobTypeOther
	}
	if t.Schedule {
		return JobTypeScheduled
	}
	if t.GithubWebhook || t.OnMerge {
		if t.CustomBranchOnly {
			return JobTypeCI
		}
		return JobTypeMerge
	}
	return JobTypeOther
}

// HasStateAwareOrchestration reports whether the job has SAO enabled.
func (j *Job) HasStateAwareOrchestration() bool {
	for _, f := range j.CostOptimizationFeatures {
		if f == "state_aware_orchestration" {
			return true
		}
	}
	return false
}

// runEnvelope is the standard Admin API response wrapper for a single run.
type runEnvelope struct {
	Data Run `json:"data"`
}

// runListEnvelope wraps a list of runs.
type runListEnvelope struct {
	Data []Run `json:"data"`
}

// jobListEnvelope wraps a list of jobs.
type jobListEnvelope struct {
	Data []Job `json:"data"`
}
