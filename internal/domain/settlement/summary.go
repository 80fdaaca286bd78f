package settlement

import (
	"github.com/eshaffer321/settleup/internal/domain/money"
)

// Summary is the result of one settlement run. It is never stored; a new
// one is built for every run.
type Summary struct {
	Currency     money.Currency
	Total        money.Amount
	Average      money.Amount
	Participants int
	Transactions []Transaction
}

// Settled reports whether nobody owes anything.
func (s *Summary) Settled() bool {
	return len(s.Transactions) == 0
}

// View is the JSON shape of a Summary, with amounts in major units.
type View struct {
	Currency     string            `json:"currency"`
	Total        float64           `json:"total"`
	Average      float64           `json:"average"`
	Participants int               `json:"participants"`
	Transactions []TransactionView `json:"transactions"`
}

// TransactionView is the JSON shape of a Transaction.
type TransactionView struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// View converts the summary for JSON output.
func (s *Summary) View() View {
	v := View{
		Currency:     s.Currency.Code,
		Total:        s.Total.Float64(s.Currency),
		Average:      s.Average.Float64(s.Currency),
		Participants: s.Participants,
		Transactions: make([]TransactionView, len(s.Transactions)),
	}
	for i, tx := range s.Transactions {
		v.Transactions[i] = TransactionView{
			From:   tx.From,
			To:     tx.To,
			Amount: tx.Amount.Float64(s.Currency),
		}
	}
	return v
}
