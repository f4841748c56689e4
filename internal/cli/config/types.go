// Package config provides configuration management for the dbtlens CLI.
//
// Configuration is loaded with koanf, merging (lowest to highest precedence)
// built-in defaults, a dbtlens.yaml file, DBTLENS_-prefixed environment
// variables, and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	APIBase        string   `koanf:"api_base"`
	APIKey         string   `koanf:"api_key"`
	AccountID      int64    `koanf:"account_id"`
	EnvironmentID  int64    `koanf:"environment_id"`
	JobTypes       []string `koanf:"job_types"`
	RunStatuses    []string `koanf:"run_statuses"`
	Concurrency    int      `koanf:"concurrency"`
	PageSize       int      `koanf:"page_size"`
	MaxRuns        int      `koanf:"max_runs"`
	Days           int      `koanf:"days"`
	CostPerHour    float64  `koanf:"cost_per_hour"`
	TimeoutSeconds int      `koanf:"timeout_seconds"`
	OutputFormat   string   `koanf:"output"`
	Verbose        bool     `koanf:"verbose"`
	HistoryPath    string   `koanf:"history_path"`
}

// Default configuration values.
const (
	DefaultAPIBase        = "https://cloud.getdbt.com"
	DefaultConcurrency    = 10
	DefaultPageSize       = 500
	DefaultMaxRuns        = 50
	DefaultDays           = 30
	DefaultCostPerHour    = 4.0
	DefaultTimeoutSeconds = 30
	DefaultOutput         = "table"
)
