// Package history persists analysis snapshots to a local SQLite database.
// Persistence is opt-in; commands only write here when asked to.
package history

import (
	"context"
	"time"

	"github.com/leapstack-labs/dbtlens/internal/analyze"
)

// Analysis kinds stored in the history database.
const (
	KindFreshness = "freshness"
	KindStatus    = "status"
)

// Analysis summarizes one saved snapshot.
type Analysis struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	RowCount  int       `json:"row_count"`
}

// Store persists analysis snapshots.
type Store interface {
	// SaveFreshnessRows stores a freshness coverage snapshot and returns
	// the new analysis id.
	SaveFreshnessRows(ctx context.Context, accountID int64, rows []analyze.FreshnessRow) (string, error)

	// SaveModelStatuses stores the reconciled model statuses of a batch
	// and returns the new analysis id.
	SaveModelStatuses(ctx context.Context, accountID int64, records []analyze.RunRecord) (string, error)

	// ListAnalyses returns saved snapshots, newest first.
	ListAnalyses(ctx context.Context) ([]Analysis, error)

	Close() error
}
