// Package analyze reconciles dbt Cloud run artifacts into per-model
// execution statuses and aggregates them across runs and jobs.
package analyze

import "strings"

// Model execution statuses as reported in run_results.json. Any other
// status string passes through unmodified.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
	StatusReused  = "reused"
)

// severity orders statuses for the reconciliation merge. Error always wins,
// success beats everything but error, and all remaining statuses share the
// bottom tier with no ordering among them.
func severity(status string) int {
	switch status {
	case StatusError:
		return 2
	case StatusSuccess:
		return 1
	default:
		return 0
	}
}

// IsReuse reports whether a status means the platform skipped re-execution.
func IsReuse(status string) bool {
	return status == StatusReused || status == StatusSkipped
}

// ModelStatusRecord is the canonical reconciled execution status of one
// model within one run. Exactly one record exists per unique id per run.
type ModelStatusRecord struct {
	UniqueID      string  `json:"unique_id"`
	Name          string  `json:"name"`
	ResourceType  string  `json:"resource_type"`
	Status        string  `json:"status"`
	ExecutionTime float64 `json:"execution_time"`
	StartedAt     string  `json:"started_at,omitempty"`
	CompletedAt   string  `json:"completed_at,omitempty"`

	// Steps holds the indices of the steps that reported this id,
	// in ascending step order.
	Steps []int `json:"steps"`
}

// modelName extracts the display name from a unique id
// (e.g. "model.analytics.fct_orders" -> "fct_orders").
func modelName(uniqueID string) string {
	if uniqueID == "" {
		return "unknown"
	}
	parts := strings.Split(uniqueID, ".")
	return parts[len(parts)-1]
}

// RunDescriptor identifies a run to analyze plus the job metadata to tag
// its results with.
type RunDescriptor struct {
	RunID     int64
	CreatedAt string
	JobID     int64
	JobName   string
	RunStatus int
}

// RunRecord is the reconciled outcome of one run. Immutable once produced.
type RunRecord struct {
	RunID     int64               `json:"run_id"`
	CreatedAt string              `json:"created_at"`
	JobID     int64               `json:"job_id"`
	JobName   string              `json:"job_name"`
	RunStatus int                 `json:"run_status"`
	Models    []ModelStatusRecord `json:"models"`
}

// RunFailure records one run that could not be analyzed.
type RunFailure struct {
	RunID int64
	Err   error
}

// FreshnessFields is the normalized freshness configuration of a node or
// source. Nil pointers mean the field is absent.
type FreshnessFields struct {
	WarnAfterCount   *int    `json:"warn_after_count"`
	WarnAfterPeriod  *string `json:"warn_after_period"`
	ErrorAfterCount  *int    `json:"error_after_count"`
	ErrorAfterPeriod *string `json:"error_after_period"`
	BuildAfterCount  *int    `json:"build_after_count"`
	BuildAfterPeriod *string `json:"build_after_period"`
	UpdatesOn        *string `json:"updates_on"`
}

// FreshnessRow is one row of the freshness coverage report.
type FreshnessRow struct {
	UniqueID     string `json:"unique_id"`
	ResourceType string `json:"resource_type"`
	Name         string `json:"name"`
	IsConfigured bool   `json:"is_freshness_configured"`
	FreshnessFields
}

// excludedResourceTypes lists the manifest resource types dropped during
// status reconciliation.
var excludedResourceTypes = map[string]bool{
	"source":    true,
	"analysis":  true,
	"operation": true,
	"seed":      true,
	"snapshot":  true,
	"test":      true,
}
