package settlement

import (
	"fmt"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

// Position is a participant's standing after transactions are applied.
type Position struct {
	Index    int
	Name     string
	Balance  money.Amount // before settlement
	Paid     money.Amount // sent to others
	Received money.Amount // received from others
}

// Adjusted is the balance left after settlement. It is zero when the
// participant has ended up paying exactly their share.
func (p Position) Adjusted() money.Amount {
	return p.Balance + p.Paid - p.Received
}

// Apply replays transactions against the sheet's balances.
func Apply(sheet *balance.Sheet, transactions []Transaction) []Position {
	positions := make([]Position, len(sheet.Entries))
	byIndex := make(map[int]*Position, len(sheet.Entries))
	for i, e := range sheet.Entries {
		positions[i] = Position{Index: e.Index, Name: e.Name, Balance: e.Balance}
		byIndex[e.Index] = &positions[i]
	}

	for _, tx := range transactions {
		if from, ok := byIndex[tx.FromIndex]; ok {
			from.Paid += tx.Amount
		}
		if to, ok := byIndex[tx.ToIndex]; ok {
			to.Received += tx.Amount
		}
	}
	return positions
}

// Verify checks that transactions settle the sheet: every adjusted balance
// is zero, no creditor receives more than their balance, every amount is
// positive, and there are at most debtors+creditors-1 transactions.
func Verify(sheet *balance.Sheet, transactions []Transaction) error {
	for _, tx := range transactions {
		if tx.Amount <= 0 {
			return fmt.Errorf("%w: non-positive transfer %s -> %s", ErrInvariantViolation, tx.From, tx.To)
		}
	}

	parties := len(sheet.Debtors()) + len(sheet.Creditors())
	if parties > 0 && len(transactions) > parties-1 {
		return fmt.Errorf("%w: %d transactions for %d parties", ErrInvariantViolation, len(transactions), parties)
	}

	for _, pos := range Apply(sheet, transactions) {
		if pos.Balance > 0 && pos.Received > pos.Balance {
			return fmt.Errorf("%w: %s overpaid by %d", ErrInvariantViolation, pos.Name, pos.Received-pos.Balance)
		}
		if adj := pos.Adjusted(); adj != 0 {
			return fmt.Errorf("%w: %s left with balance %d", ErrInvariantViolation, pos.Name, adj)
		}
	}
	return nil
}
