// Package settlement turns participant balances into a list of
// peer-to-peer transfers that leave everyone having paid an equal share.
//
// Matching is greedy: the largest outstanding debt is paid towards the
// largest outstanding credit until one side is cleared, then the next one
// is taken. This is linear after sorting and tends towards few transfers,
// but it is not guaranteed to find the minimum number of transfers.
//
// Example usage:
//
//	engine := settlement.NewEngine(settlement.WithLogger(logger))
//	summary, err := engine.Settle(ctx, participants)
//	if errors.Is(err, balance.ErrInsufficientParticipants) {
//		// ask for more people
//	}
package settlement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

// ErrInvariantViolation means the balances handed to the matcher did not
// cancel out. It indicates a programming error, not bad user input.
var ErrInvariantViolation = errors.New("settlement invariant violated")

// Transaction is a transfer from a debtor to a creditor.
type Transaction struct {
	From   string
	To     string
	Amount money.Amount

	// FromIndex and ToIndex are the participants' input positions.
	FromIndex int
	ToIndex   int
}

type cursorEntry struct {
	entry     balance.Entry
	remaining money.Amount
}

// Match pairs debtors (negative balances) with creditors (positive
// balances). Ties keep input order, so the same balances always produce
// the same transactions in the same order.
func Match(debtors, creditors []balance.Entry) ([]Transaction, error) {
	ds := make([]cursorEntry, len(debtors))
	for i, d := range debtors {
		ds[i] = cursorEntry{entry: d, remaining: d.Balance}
	}
	cs := make([]cursorEntry, len(creditors))
	for i, c := range creditors {
		cs[i] = cursorEntry{entry: c, remaining: c.Balance}
	}

	// Largest debt first (most negative), largest credit first
	sort.SliceStable(ds, func(a, b int) bool { return ds[a].remaining < ds[b].remaining })
	sort.SliceStable(cs, func(a, b int) bool { return cs[a].remaining > cs[b].remaining })

	transactions := make([]Transaction, 0, len(ds)+len(cs))
	i, j := 0, 0 // creditor, debtor

	for i < len(cs) && j < len(ds) {
		creditor := &cs[i]
		debtor := &ds[j]

		amount := money.Min(creditor.remaining, debtor.remaining.Abs())
		if amount <= 0 || debtor.remaining >= 0 {
			return nil, fmt.Errorf("%w: cannot match %s (%d) with %s (%d)",
				ErrInvariantViolation,
				debtor.entry.Name, debtor.remaining,
				creditor.entry.Name, creditor.remaining)
		}

		transactions = append(transactions, Transaction{
			From:      debtor.entry.Name,
			To:        creditor.entry.Name,
			Amount:    amount,
			FromIndex: debtor.entry.Index,
			ToIndex:   creditor.entry.Index,
		})

		creditor.remaining -= amount
		debtor.remaining += amount

		// Both advance when the amounts tie
		if creditor.remaining == 0 {
			i++
		}
		if debtor.remaining == 0 {
			j++
		}
	}

	var leftover money.Amount
	for ; i < len(cs); i++ {
		leftover += cs[i].remaining
	}
	for ; j < len(ds); j++ {
		leftover += ds[j].remaining
	}
	if leftover != 0 {
		return nil, fmt.Errorf("%w: %d minor units left unmatched", ErrInvariantViolation, leftover)
	}

	return transactions, nil
}
