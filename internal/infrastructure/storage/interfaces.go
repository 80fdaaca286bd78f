package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	VisitRepository
	RunRepository
	Close() error
}

// VisitRepository handles page visit counters
type VisitRepository interface {
	// IncrementVisit adds one visit to key and returns the new count
	IncrementVisit(ctx context.Context, key string) (int64, error)

	// GetVisits returns the count for key (0 if never visited)
	GetVisits(ctx context.Context, key string) (int64, error)
}

// RunRepository handles anonymous settlement run telemetry
type RunRepository interface {
	// SaveRun stores one run
	SaveRun(ctx context.Context, run *SettlementRun) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id string) (*SettlementRun, error)

	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]SettlementRun, error)

	// GetRunStats returns aggregate statistics over all runs
	GetRunStats(ctx context.Context) (*RunStats, error)
}
