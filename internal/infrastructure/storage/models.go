package storage

import "time"

// SettlementRun is one engine run. It carries counts only, never names or
// amounts.
type SettlementRun struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Outcome      string        `json:"outcome"`
	Rows         int           `json:"rows"`
	Participants int           `json:"participants"`
	Skipped      int           `json:"skipped"`
	Normalized   int           `json:"normalized"`
	Debtors      int           `json:"debtors"`
	Creditors    int           `json:"creditors"`
	Transactions int           `json:"transactions"`
}

// RunStats contains aggregate run statistics
type RunStats struct {
	TotalRuns           int            `json:"total_runs"`
	OutcomeCounts       map[string]int `json:"outcome_counts"`
	TotalTransactions   int            `json:"total_transactions"`
	AverageParticipants float64        `json:"average_participants"`
	AverageTransactions float64        `json:"average_transactions"`
	AverageDuration     time.Duration  `json:"average_duration"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
