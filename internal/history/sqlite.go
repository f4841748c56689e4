package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dbtlens/internal/analyze"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and runs any pending
// migrations. Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// migrate runs all pending migrations using the embedded SQL files.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveFreshnessRows stores a freshness coverage snapshot.
func (s *SQLiteStore) SaveFreshnessRows(ctx context.Context, accountID int64, rows []analyze.FreshnessRow) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertAnalysis(ctx, tx, KindFreshness, accountID)
	if err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO freshness_rows (
			analysis_id, unique_id, resource_type, name, is_configured,
			warn_after_count, warn_after_period,
			error_after_count, error_after_period,
			build_after_count, build_after_period, updates_on
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			id, row.UniqueID, row.ResourceType, row.Name, row.IsConfigured,
			row.WarnAfterCount, row.WarnAfterPeriod,
			row.ErrorAfterCount, row.ErrorAfterPeriod,
			row.BuildAfterCount, row.BuildAfterPeriod, row.UpdatesOn,
		); err != nil {
			return "", fmt.Errorf("failed to insert freshness row %s: %w", row.UniqueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// SaveModelStatuses stores the reconciled model statuses of a batch.
func (s *SQLiteStore) SaveModelStatuses(ctx context.Context, accountID int64, records []analyze.RunRecord) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertAnalysis(ctx, tx, KindStatus, accountID)
	if err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO model_statuses (
			analysis_id, run_id, job_id, job_name,
			unique_id, name, status, execution_time, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		for _, model := range record.Models {
			if _, err := stmt.ExecContext(ctx,
				id, record.RunID, record.JobID, record.JobName,
				model.UniqueID, model.Name, model.Status,
				model.ExecutionTime, model.StartedAt, model.CompletedAt,
			); err != nil {
				return "", fmt.Errorf("failed to insert status for %s: %w", model.UniqueID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// ListAnalyses returns saved snapshots, newest first, with their row counts.
func (s *SQLiteStore) ListAnalyses(ctx context.Context) ([]Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.kind, a.account_id, a.created_at,
			(SELECT COUNT(*) FROM freshness_rows f WHERE f.analysis_id = a.id) +
			(SELECT COUNT(*) FROM model_statuses m WHERE m.analysis_id = a.id)
		FROM analyses a
		ORDER BY a.created_at DESC, a.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Kind, &a.AccountID, &createdAt, &a.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse analysis timestamp: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// insertAnalysis creates the snapshot header row and returns its id.
func insertAnalysis(ctx context.Context, tx *sql.Tx, kind string, accountID int64) (string, error) {
	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO analyses (id, kind, account_id, created_at) VALUES (?, ?, ?, ?)
	`, id, kind, accountID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	return id, nil
}
