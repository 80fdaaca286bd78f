package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

// Run outcomes reported to a RunRecorder.
const (
	OutcomeSettled                  = "settled"
	OutcomeNothingToSettle          = "nothing_to_settle"
	OutcomeInsufficientParticipants = "insufficient_participants"
	OutcomeInvalidAmount            = "invalid_amount"
	OutcomeInvariantViolation       = "invariant_violation"
	OutcomeError                    = "error"
)

// RunMetrics describes a run without names or amounts.
type RunMetrics struct {
	ID           string
	StartedAt    time.Time
	Duration     time.Duration
	Outcome      string
	Rows         int
	Participants int
	Skipped      int
	Normalized   int
	Debtors      int
	Creditors    int
	Transactions int
}

// RunRecorder receives metrics for every run. Recording errors are logged
// and never fail the run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run RunMetrics) error
}

// Engine runs the balance calculator and the matcher.
type Engine struct {
	opts     balance.Options
	logger   *slog.Logger
	recorder RunRecorder
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptions sets the balance options (currency, placeholder prefix).
func WithOptions(opts balance.Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder sets a RunRecorder.
func WithRecorder(r RunRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an engine with default options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		opts:   balance.DefaultOptions(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options returns the balance options the engine runs with.
func (e *Engine) Options() balance.Options {
	return e.opts
}

// Settle computes the settlement for participants. Callers are expected to
// handle balance.ErrInsufficientParticipants and money.ErrInvalidAmount
// (total out of range); an error wrapping ErrInvariantViolation is an
// internal failure.
func (e *Engine) Settle(ctx context.Context, participants []balance.Participant) (*Summary, error) {
	started := e.now()
	metrics := RunMetrics{
		ID:        uuid.NewString(),
		StartedAt: started,
		Rows:      len(participants),
	}

	summary, sheet, err := e.settle(participants)
	if sheet != nil {
		metrics.Participants = sheet.Count()
		metrics.Skipped = len(sheet.Skipped)
		metrics.Normalized = len(sheet.Normalized)
		metrics.Debtors = len(sheet.Debtors())
		metrics.Creditors = len(sheet.Creditors())
	}
	metrics.Duration = e.now().Sub(started)

	switch {
	case err == nil && summary.Settled():
		metrics.Outcome = OutcomeNothingToSettle
	case err == nil:
		metrics.Outcome = OutcomeSettled
		metrics.Transactions = len(summary.Transactions)
	case errors.Is(err, balance.ErrInsufficientParticipants):
		metrics.Outcome = OutcomeInsufficientParticipants
	case errors.Is(err, money.ErrInvalidAmount):
		metrics.Outcome = OutcomeInvalidAmount
	case errors.Is(err, ErrInvariantViolation):
		metrics.Outcome = OutcomeInvariantViolation
		e.logger.Error("settlement failed consistency check",
			"run_id", metrics.ID,
			"participants", metrics.Participants,
			"error", err)
	default:
		metrics.Outcome = OutcomeError
	}

	e.record(ctx, metrics)

	if err != nil {
		return nil, err
	}

	e.logger.Debug("settlement computed",
		"run_id", metrics.ID,
		"participants", metrics.Participants,
		"skipped", metrics.Skipped,
		"normalized", metrics.Normalized,
		"transactions", metrics.Transactions)
	return summary, nil
}

func (e *Engine) settle(participants []balance.Participant) (*Summary, *balance.Sheet, error) {
	sheet, err := balance.Calculate(participants, e.opts)
	if err != nil {
		return nil, nil, err
	}

	if len(sheet.Normalized) > 0 {
		e.logger.Debug("treated unusable amounts as zero", "rows", sheet.Normalized)
	}

	transactions, err := Match(sheet.Debtors(), sheet.Creditors())
	if err != nil {
		return nil, sheet, err
	}
	if err := Verify(sheet, transactions); err != nil {
		return nil, sheet, err
	}

	return &Summary{
		Currency:     sheet.Currency,
		Total:        sheet.Total,
		Average:      sheet.Average,
		Participants: sheet.Count(),
		Transactions: transactions,
	}, sheet, nil
}

func (e *Engine) record(ctx context.Context, metrics RunMetrics) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordRun(ctx, metrics); err != nil {
		e.logger.Warn("failed to record settlement run", "run_id", metrics.ID, "error", err)
	}
}
