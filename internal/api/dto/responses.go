package dto

import (
	"time"

	"github.com/eshaffer321/settleup/internal/domain/settlement"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SettlementResponse is a computed summary, optionally with share text.
type SettlementResponse struct {
	settlement.View
	Report string `json:"report,omitempty"`
}

// NewSettlementResponse converts a summary.
func NewSettlementResponse(s *settlement.Summary, report string) SettlementResponse {
	return SettlementResponse{View: s.View(), Report: report}
}

// SheetResponse represents a worksheet.
type SheetResponse struct {
	ID      string          `json:"id"`
	Version int64           `json:"version"`
	Stale   bool            `json:"stale"`
	Rows    []worksheet.Row `json:"rows"`
}

// NewSheetResponse converts a sheet.
func NewSheetResponse(s *worksheet.Sheet) SheetResponse {
	return SheetResponse{
		ID:      s.ID(),
		Version: s.Version(),
		Stale:   s.Stale(),
		Rows:    s.Rows(),
	}
}

// VisitResponse is a visit counter value.
type VisitResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// StatsResponse contains aggregate settlement run statistics.
type StatsResponse struct {
	TotalRuns           int            `json:"total_runs"`
	OutcomeCounts       map[string]int `json:"outcome_counts"`
	TotalTransactions   int            `json:"total_transactions"`
	AverageParticipants float64        `json:"average_participants"`
	AverageTransactions float64        `json:"average_transactions"`
	AverageDurationMS   float64        `json:"average_duration_ms"`
	RecentRuns          []RunResponse  `json:"recent_runs"`
}

// RunResponse represents one settlement run.
type RunResponse struct {
	ID           string  `json:"id"`
	StartedAt    string  `json:"started_at"`
	DurationMS   float64 `json:"duration_ms"`
	Outcome      string  `json:"outcome"`
	Participants int     `json:"participants"`
	Transactions int     `json:"transactions"`
}

// NewStatsResponse converts storage stats and recent runs.
func NewStatsResponse(stats *storage.RunStats, recent []storage.SettlementRun) StatsResponse {
	resp := StatsResponse{
		TotalRuns:           stats.TotalRuns,
		OutcomeCounts:       stats.OutcomeCounts,
		TotalTransactions:   stats.TotalTransactions,
		AverageParticipants: stats.AverageParticipants,
		AverageTransactions: stats.AverageTransactions,
		AverageDurationMS:   milliseconds(stats.AverageDuration),
		RecentRuns:          make([]RunResponse, 0, len(recent)),
	}
	for _, run := range recent {
		resp.RecentRuns = append(resp.RecentRuns, RunResponse{
			ID:           run.ID,
			StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
			DurationMS:   milliseconds(run.Duration),
			Outcome:      run.Outcome,
			Participants: run.Participants,
			Transactions: run.Transactions,
		})
	}
	return resp
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
