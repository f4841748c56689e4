// Package commands implements the dbtlens subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/dbtlens/internal/cli/config"
	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
	"github.com/leapstack-labs/dbtlens/internal/history"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Client *dbtcloud.Client
}

// NewCommandContext validates the configuration and builds the API client.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		cfg = &config.Config{
			APIBase:      config.DefaultAPIBase,
			OutputFormat: config.DefaultOutput,
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := config.GetLogger(cmd.Context())
	client := dbtcloud.NewClient(dbtcloud.Config{
		BaseURL:   cfg.APIBase,
		APIKey:    cfg.APIKey,
		AccountID: cfg.AccountID,
		Timeout:   cfg.Timeout(),
		Logger:    logger,
	})

	return &CommandContext{Cfg: cfg, Logger: logger, Client: client}, nil
}

// openHistory opens the history store when persistence was requested.
// Returns nil when --save was not given.
func (c *CommandContext) openHistory(save bool) (history.Store, error) {
	if !save {
		return nil, nil
	}
	return openHistoryStore(c.Cfg)
}

// openHistoryStore opens the history database at the configured path,
// creating parent directories as needed.
func openHistoryStore(cfg *config.Config) (history.Store, error) {
	path := cfg.HistoryPath
	if path == "" {
		path = ".dbtlens/history.db"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}
