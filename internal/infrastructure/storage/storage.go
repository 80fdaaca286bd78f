// Package storage persists visit counters and anonymous settlement run
// telemetry in SQLite. Settlements themselves are never stored.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage provides SQLite database access.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the database at dbPath and applies
// pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	return NewStorageWithLogger(dbPath, nil)
}

// NewStorageWithLogger is NewStorage with a logger for migration output.
func NewStorageWithLogger(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies embedded goose migrations.
func (s *Storage) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("applied migration", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// IncrementVisit adds one visit to key and returns the new count
func (s *Storage) IncrementVisit(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO visit_counters (key, count, updated_at) VALUES (?, 1, ?)
	ON CONFLICT(key) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at
	`, key, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to increment visit counter %q: %w", key, err)
	}

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT count FROM visit_counters WHERE key = ?`, key).Scan(&count); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// GetVisits returns the count for key (0 if never visited)
func (s *Storage) GetVisits(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT count FROM visit_counters WHERE key = ?`, key).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// SaveRun stores one run
func (s *Storage) SaveRun(ctx context.Context, run *SettlementRun) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO settlement_runs
	(id, started_at, duration_us, outcome, row_count, participants,
	 skipped, normalized, debtors, creditors, transactions)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC(),
		run.Duration.Microseconds(),
		run.Outcome,
		run.Rows,
		run.Participants,
		run.Skipped,
		run.Normalized,
		run.Debtors,
		run.Creditors,
		run.Transactions,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, started_at, duration_us, outcome, row_count, participants,
	skipped, normalized, debtors, creditors, transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*SettlementRun, error) {
	var run SettlementRun
	var durationUS int64
	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&durationUS,
		&run.Outcome,
		&run.Rows,
		&run.Participants,
		&run.Skipped,
		&run.Normalized,
		&run.Debtors,
		&run.Creditors,
		&run.Transactions,
	)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationUS) * time.Microsecond
	return &run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, id string) (*SettlementRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM settlement_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListRuns returns the most recent runs first
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]SettlementRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM settlement_runs ORDER BY started_at DESC, id LIMIT ?`,
		clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]SettlementRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunStats returns aggregate statistics over all runs
func (s *Storage) GetRunStats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{OutcomeCounts: make(map[string]int)}

	var avgParticipants, avgTransactions, avgDurationUS sql.NullFloat64
	var totalTransactions sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*), SUM(transactions), AVG(participants), AVG(transactions), AVG(duration_us)
	FROM settlement_runs
	`).Scan(&stats.TotalRuns, &totalTransactions, &avgParticipants, &avgTransactions, &avgDurationUS)
	if err != nil {
		return nil, err
	}
	stats.TotalTransactions = int(totalTransactions.Int64)
	stats.AverageParticipants = avgParticipants.Float64
	stats.AverageTransactions = avgTransactions.Float64
	stats.AverageDuration = time.Duration(avgDurationUS.Float64) * time.Microsecond

	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM settlement_runs GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats.OutcomeCounts[outcome] = count
	}
	return stats, rows.Err()
}
