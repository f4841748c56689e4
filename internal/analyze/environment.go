package analyze

// environment.go - Environment overview from Discovery API metadata

import (
	"encoding/json"
	"time"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
)

// EnvironmentModelRow is the SLO-compliance view of one model in an
// environment, derived from Discovery API metadata.
type EnvironmentModelRow struct {
	Name             string   `json:"name"`
	PackageName      string   `json:"package_name"`
	LastRunStatus    string   `json:"last_run_status"`
	LastRunError     string   `json:"last_run_error,omitempty"`
	Materialization  string   `json:"materialization,omitempty"`
	BuildAfterCount  *int     `json:"build_after_count"`
	BuildAfterPeriod *string  `json:"build_after_period"`
	UpdatesOn        *string  `json:"updates_on"`
	HoursSinceRun    *float64 `json:"hours_since_last_execution"`
	ExpectedHours    *float64 `json:"expected_hours_between_runs"`
	OutsideSLO       bool     `json:"is_outside_slo"`
}

// EnvironmentReport is the reuse and SLO-compliance summary of one
// environment.
type EnvironmentReport struct {
	Rows          []EnvironmentModelRow `json:"rows"`
	TotalModels   int                   `json:"total_models"`
	ReusedModels  int                   `json:"reused_models"`
	WithFreshness int                   `json:"with_freshness"`
	OutsideSLO    int                   `json:"outside_slo"`
}

// ReuseRate returns the share of models whose last run was a reuse, in percent.
func (r *EnvironmentReport) ReuseRate() float64 {
	if r.TotalModels == 0 {
		return 0
	}
	return float64(r.ReusedModels) / float64(r.TotalModels) * 100
}

// modelConfig is the Discovery API config payload subset dbtlens reads.
type modelConfig struct {
	Materialized string          `json:"materialized"`
	Freshness    json.RawMessage `json:"freshness"`
}

// BuildEnvironmentReport derives SLO compliance rows from environment model
// metadata. Models with no parseable timestamps or freshness config stay in
// the report with undetermined (nil) slots; breach is only asserted when an
// expectation exists.
func BuildEnvironmentReport(models []dbtcloud.EnvironmentModel, now time.Time) *EnvironmentReport {
	report := &EnvironmentReport{}

	for _, model := range models {
		row := EnvironmentModelRow{
			Name:        model.Name,
			PackageName: model.PackageName,
		}

		var cfg modelConfig
		if len(model.Config) > 0 {
			// Config shape varies per adapter; a decode failure just leaves
			// the freshness slots empty.
			_ = json.Unmarshal(model.Config, &cfg)
		}
		row.Materialization = cfg.Materialized

		fields := ExtractFreshnessFields(cfg.Freshness)
		row.BuildAfterCount = fields.BuildAfterCount
		row.BuildAfterPeriod = fields.BuildAfterPeriod
		row.UpdatesOn = fields.UpdatesOn

		if info := model.ExecutionInfo; info != nil {
			row.LastRunStatus = info.LastRunStatus
			row.LastRunError = info.LastRunError
			row.HoursSinceRun = HoursSince(info.ExecuteCompletedAt, now)
		}

		row.ExpectedHours = ExpectedHours(row.BuildAfterCount, row.BuildAfterPeriod)
		if row.HoursSinceRun != nil {
			row.OutsideSLO = IsOutsideSLO(*row.HoursSinceRun, row.ExpectedHours)
		}

		report.Rows = append(report.Rows, row)
		report.TotalModels++
		if row.LastRunStatus == StatusReused {
			report.ReusedModels++
		}
		if row.BuildAfterCount != nil {
			report.WithFreshness++
		}
		if row.OutsideSLO {
			report.OutsideSLO++
		}
	}

	return report
}
