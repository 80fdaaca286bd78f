package worksheet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSheetNotFound is returned when a sheet ID does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrStoreFull is returned by Create when the sheet limit is reached.
	ErrStoreFull = errors.New("too many open sheets")
)

// DefaultMaxSheets is the sheet limit of a store created without
// WithMaxSheets.
const DefaultMaxSheets = 10000

// Store keeps sheets in memory.
type Store struct {
	mu        sync.RWMutex
	sheets    map[string]*Sheet
	settler   Settler
	maxSheets int
	maxRows   int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxSheets limits how many sheets may be open at once. Zero or less
// removes the limit.
func WithMaxSheets(n int) StoreOption {
	return func(st *Store) { st.maxSheets = n }
}

// WithMaxRows limits the rows of each sheet. Zero or less removes the
// limit.
func WithMaxRows(n int) StoreOption {
	return func(st *Store) { st.maxRows = n }
}

// NewStore creates a store whose sheets settle with settler.
func NewStore(settler Settler, opts ...StoreOption) *Store {
	st := &Store{
		sheets:    make(map[string]*Sheet),
		settler:   settler,
		maxSheets: DefaultMaxSheets,
		maxRows:   DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Create adds a new empty sheet.
func (st *Store) Create() (*Sheet, error) {
	sheet := New(uuid.NewString(), st.settler)
	sheet.maxRows = st.maxRows

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.maxSheets > 0 && len(st.sheets) >= st.maxSheets {
		return nil, fmt.Errorf("%w: limit is %d", ErrStoreFull, st.maxSheets)
	}
	st.sheets[sheet.ID()] = sheet
	return sheet, nil
}

// MaxRows returns the row limit of sheets in this store.
func (st *Store) MaxRows() int {
	return st.maxRows
}

// Get returns the sheet with the given ID.
func (st *Store) Get(id string) (*Sheet, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sheet, ok := st.sheets[id]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return sheet, nil
}

// Delete removes a sheet.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sheets[id]; !ok {
		return ErrSheetNotFound
	}
	delete(st.sheets, id)
	return nil
}

// Len returns the number of sheets.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sheets)
}

// Prune removes sheets not touched within maxIdle and returns how many
// were removed.
func (st *Store) Prune(now time.Time, maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sheet := range st.sheets {
		if now.Sub(sheet.lastTouched()) > maxIdle {
			delete(st.sheets, id)
			removed++
		}
	}
	return removed
}
