package commands

import (
	"time"

	"github.com/leapstack-labs/dbtlens/internal/cli/config"
	"github.com/spf13/cobra"
)

// historyColumns is the fixed column order of the snapshot listing.
var historyColumns = []string{"ID", "KIND", "ACCOUNT", "CREATED_AT", "ROWS"}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved analysis snapshots",
		Long: `List the snapshots saved to the local history database by
"status --save" and "freshness --save", newest first.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
}

// runHistory reads the local database only; no API credentials needed.
func runHistory(cmd *cobra.Command, _ []string) error {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		cfg = &config.Config{OutputFormat: config.DefaultOutput}
	}

	store, err := openHistoryStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	analyses, err := store.ListAnalyses(cmd.Context())
	if err != nil {
		return err
	}

	tableRows := make([][]any, len(analyses))
	for i, a := range analyses {
		tableRows[i] = []any{
			a.ID, a.Kind, a.AccountID, a.CreatedAt.Format(time.RFC3339), a.RowCount,
		}
	}

	rep := &report{columns: historyColumns, rows: tableRows, value: analyses}
	return rep.render(cmd.OutOrStdout(), cfg.OutputFormat)
}
