package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
)

// validOutputs lists the accepted output formats.
var validOutputs = map[string]bool{
	"table": true,
	"csv":   true,
	"json":  true,
}

// statusNames maps configurable run-status names to Admin API codes.
var statusNames = map[string]int{
	"queued":    dbtcloud.RunStatusQueued,
	"starting":  dbtcloud.RunStatusStarting,
	"running":   dbtcloud.RunStatusRunning,
	"success":   dbtcloud.RunStatusSuccess,
	"error":     dbtcloud.RunStatusError,
	"cancelled": dbtcloud.RunStatusCanceled,
}

// jobTypeNames maps configurable job-type names to their classification.
var jobTypeNames = map[string]dbtcloud.JobType{
	"ci":        dbtcloud.JobTypeCI,
	"merge":     dbtcloud.JobTypeMerge,
	"scheduled": dbtcloud.JobTypeScheduled,
	"other":     dbtcloud.JobTypeOther,
}

// Validate checks if the configuration is valid. Credentials are required
// before any network call is attempted.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set DBTLENS_API_KEY or api_key in dbtlens.yaml)")
	}
	if c.AccountID == 0 {
		return fmt.Errorf("account_id is required (set DBTLENS_ACCOUNT_ID or account_id in dbtlens.yaml)")
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (expected table, csv, or json)", c.OutputFormat)
	}
	for _, name := range c.RunStatuses {
		if _, ok := statusNames[name]; !ok {
			return fmt.Errorf("unknown run status %q", name)
		}
	}
	for _, name := range c.JobTypes {
		if _, ok := jobTypeNames[name]; !ok {
			return fmt.Errorf("unknown job type %q (expected ci, merge, scheduled, or other)", name)
		}
	}
	return nil
}

// StatusCodes converts the configured run-status names to Admin API codes.
// Unknown names are skipped; Validate catches them beforehand.
func (c *Config) StatusCodes() []int {
	var codes []int
	for _, name := range c.RunStatuses {
		if code, ok := statusNames[name]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// JobTypeFilter converts the configured job-type names to classifications.
func (c *Config) JobTypeFilter() []dbtcloud.JobType {
	var types []dbtcloud.JobType
	for _, name := range c.JobTypes {
		if t, ok := jobTypeNames[name]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
