package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu     sync.Mutex
	visits map[string]int64
	runs   map[string]SettlementRun

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *SettlementRun

	// Error injection for testing error paths
	IncrementVisitErr error
	GetVisitsErr      error
	SaveRunErr        error
	GetRunStatsErr    error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		visits: make(map[string]int64),
		runs:   make(map[string]SettlementRun),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// IncrementVisit bumps the in-memory counter
func (m *MockRepository) IncrementVisit(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IncrementVisitErr != nil {
		return 0, m.IncrementVisitErr
	}
	m.visits[key]++
	return m.visits[key], nil
}

// GetVisits reads the in-memory counter
func (m *MockRepository) GetVisits(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetVisitsErr != nil {
		return 0, m.GetVisitsErr
	}
	return m.visits[key], nil
}

// SaveRun saves a copy of run
func (m *MockRepository) SaveRun(_ context.Context, run *SettlementRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	m.runs[run.ID] = *run
	return nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(_ context.Context, id string) (*SettlementRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

// ListRuns returns stored runs, newest first
func (m *MockRepository) ListRuns(_ context.Context, limit int) ([]SettlementRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runs := make([]SettlementRun, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit = clampLimit(limit); len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRunStats aggregates the stored runs
func (m *MockRepository) GetRunStats(_ context.Context) (*RunStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRunStatsErr != nil {
		return nil, m.GetRunStatsErr
	}

	stats := &RunStats{OutcomeCounts: make(map[string]int)}
	var participants, transactions int
	var duration time.Duration
	for _, run := range m.runs {
		stats.TotalRuns++
		stats.OutcomeCounts[run.Outcome]++
		participants += run.Participants
		transactions += run.Transactions
		duration += run.Duration
	}
	stats.TotalTransactions = transactions
	if stats.TotalRuns > 0 {
		n := float64(stats.TotalRuns)
		stats.AverageParticipants = float64(participants) / n
		stats.AverageTransactions = float64(transactions) / n
		stats.AverageDuration = duration / time.Duration(stats.TotalRuns)
	}
	return stats, nil
}
