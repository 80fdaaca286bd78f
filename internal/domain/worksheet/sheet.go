// Package worksheet holds editable participant rows and the last
// settlement computed from them.
//
// A summary is only valid for the exact rows it was computed from. Every
// edit bumps the sheet version and drops the cached summary, so a caller
// can never show a settlement that disagrees with the current rows.
package worksheet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
	"github.com/eshaffer321/settleup/internal/domain/settlement"
)

var (
	// ErrStale is returned by Summary when there is no summary for the
	// current rows.
	ErrStale = errors.New("no up-to-date summary: calculate again")
	// ErrRowNotFound is returned when a row ID does not exist.
	ErrRowNotFound = errors.New("row not found")
	// ErrTooManyRows is returned by AddRow when the sheet is full.
	ErrTooManyRows = errors.New("too many rows")
)

// DefaultMaxRows is the row limit of sheets created with New.
const DefaultMaxRows = 1000

// Settler computes a summary. *settlement.Engine implements it.
type Settler interface {
	Settle(ctx context.Context, participants []balance.Participant) (*settlement.Summary, error)
}

// Row is one editable participant.
type Row struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount money.RawAmount `json:"amount"`
}

// RowPatch carries the fields of an update; nil fields are left alone.
type RowPatch struct {
	Name   *string          `json:"name"`
	Amount *money.RawAmount `json:"amount"`
}

// Sheet is safe for concurrent use.
type Sheet struct {
	mu      sync.Mutex
	id      string
	settler Settler
	maxRows int
	rows    []Row
	version int64
	touched time.Time

	summary        *settlement.Summary
	summaryVersion int64
}

// New creates an empty sheet.
func New(id string, settler Settler) *Sheet {
	return &Sheet{id: id, settler: settler, maxRows: DefaultMaxRows, touched: time.Now()}
}

// ID returns the sheet ID.
func (s *Sheet) ID() string {
	return s.id
}

// Version increases on every edit.
func (s *Sheet) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Rows returns a copy of the rows.
func (s *Sheet) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// AddRow appends a row with a generated ID.
func (s *Sheet) AddRow(name string, amount money.RawAmount) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxRows > 0 && len(s.rows) >= s.maxRows {
		return Row{}, fmt.Errorf("%w: limit is %d", ErrTooManyRows, s.maxRows)
	}
	row := Row{ID: uuid.NewString(), Name: name, Amount: amount}
	s.rows = append(s.rows, row)
	s.invalidate()
	return row, nil
}

// UpdateRow applies patch to the row with the given ID.
func (s *Sheet) UpdateRow(id string, patch RowPatch) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Row{}, ErrRowNotFound
	}
	if patch.Name != nil {
		s.rows[idx].Name = *patch.Name
	}
	if patch.Amount != nil {
		s.rows[idx].Amount = *patch.Amount
	}
	s.invalidate()
	return s.rows[idx], nil
}

// RemoveRow deletes the row with the given ID.
func (s *Sheet) RemoveRow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrRowNotFound
	}
	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	s.invalidate()
	return nil
}

// Calculate settles the current rows and caches the result. On failure
// any previous summary stays invalid.
func (s *Sheet) Calculate(ctx context.Context) (*settlement.Summary, error) {
	s.mu.Lock()
	version := s.version
	participants := make([]balance.Participant, len(s.rows))
	for i, r := range s.rows {
		participants[i] = balance.Participant{ID: r.ID, Name: r.Name, Amount: r.Amount}
	}
	s.touched = time.Now()
	s.mu.Unlock()

	summary, err := s.settler.Settle(ctx, participants)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.version == version {
			s.summary = nil
		}
		return nil, err
	}
	// Rows edited while settling: the result is already out of date
	if s.version != version {
		return summary, ErrStale
	}
	s.summary = summary
	s.summaryVersion = version
	return summary, nil
}

// Summary returns the cached summary if the rows have not changed since
// it was calculated.
func (s *Sheet) Summary() (*settlement.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil || s.summaryVersion != s.version {
		return nil, ErrStale
	}
	return s.summary, nil
}

// Stale reports whether Summary would return ErrStale.
func (s *Sheet) Stale() bool {
	_, err := s.Summary()
	return err != nil
}

func (s *Sheet) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// invalidate must be called with mu held.
func (s *Sheet) invalidate() {
	s.version++
	s.summary = nil
	s.touched = time.Now()
}

func (s *Sheet) indexOf(id string) int {
	for i, r := range s.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
