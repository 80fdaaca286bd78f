// Package telemetry stores anonymous settlement run metrics.
package telemetry

import (
	"context"
	"fmt"

	"github.com/eshaffer321/settleup/internal/domain/settlement"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

// Recorder persists engine runs to a RunRepository.
type Recorder struct {
	repo storage.RunRepository
}

var _ settlement.RunRecorder = (*Recorder)(nil)

// NewRecorder creates a recorder backed by repo.
func NewRecorder(repo storage.RunRepository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordRun implements settlement.RunRecorder.
func (r *Recorder) RecordRun(ctx context.Context, run settlement.RunMetrics) error {
	if err := r.repo.SaveRun(ctx, ToStorageRun(run)); err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// ToStorageRun converts engine metrics to a storage row.
func ToStorageRun(run settlement.RunMetrics) *storage.SettlementRun {
	return &storage.SettlementRun{
		ID:           run.ID,
		StartedAt:    run.StartedAt,
		Duration:     run.Duration,
		Outcome:      run.Outcome,
		Rows:         run.Rows,
		Participants: run.Participants,
		Skipped:      run.Skipped,
		Normalized:   run.Normalized,
		Debtors:      run.Debtors,
		Creditors:    run.Creditors,
		Transactions: run.Transactions,
	}
}
