// Package balance derives each participant's net position in a shared
// expense.
//
// Every included participant owes an equal share of the total:
//
//	share_i   = total / n   (split in minor units, remainder to the first rows)
//	balance_i = contributed_i - share_i
//
// A positive balance is a creditor (overpaid), a negative balance is a
// debtor (underpaid) and zero is settled. Balances always sum to zero.
package balance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eshaffer321/settleup/internal/domain/money"
)

// MinParticipants is the smallest group that can be settled.
const MinParticipants = 2

// ErrInsufficientParticipants is returned when fewer than MinParticipants
// rows carry a name or a positive amount.
var ErrInsufficientParticipants = errors.New("at least two participants are required to split expenses")

// Participant is one input row.
type Participant struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Amount money.RawAmount `json:"amount"`
}

// Role classifies a balance.
type Role string

const (
	RoleDebtor   Role = "debtor"
	RoleCreditor Role = "creditor"
	RoleSettled  Role = "settled"
)

// Entry is the computed position of one included participant.
type Entry struct {
	Index       int          // position in the input list
	Name        string       // display name, possibly a placeholder
	Placeholder bool         // Name was generated
	Contributed money.Amount // normalized contribution
	Share       money.Amount // fair share of the total
	Balance     money.Amount // Contributed - Share
	Role        Role
}

// Sheet is the output of Calculate.
type Sheet struct {
	Currency money.Currency
	Total    money.Amount
	Average  money.Amount // Total / len(Entries), rounded to the currency precision
	Entries  []Entry

	// Skipped lists input indices excluded as empty rows.
	Skipped []int
	// Normalized lists input indices whose amount could not be used and
	// was treated as zero.
	Normalized []int
}

// Options configures Calculate.
type Options struct {
	Currency          money.Currency
	PlaceholderPrefix string
}

// DefaultOptions returns a two-decimal currency and "Person" placeholders.
func DefaultOptions() Options {
	return Options{
		Currency:          money.DefaultCurrency,
		PlaceholderPrefix: "Person",
	}
}

// Calculate computes balances for participants. Unusable amounts are
// treated as zero and never reject the run; rows with neither a name nor a
// positive amount are skipped. It fails when fewer than MinParticipants
// rows remain, or with money.ErrInvalidAmount when the total exceeds
// money.MaxAmount.
func Calculate(participants []Participant, opts Options) (*Sheet, error) {
	if opts.PlaceholderPrefix == "" {
		opts.PlaceholderPrefix = DefaultOptions().PlaceholderPrefix
	}
	if err := opts.Currency.Validate(); err != nil {
		return nil, err
	}

	sheet := &Sheet{Currency: opts.Currency}

	// Step 1: normalize and filter
	for i, p := range participants {
		amount, coerced := money.Normalize(string(p.Amount), opts.Currency)
		if coerced {
			sheet.Normalized = append(sheet.Normalized, i)
		}

		name := strings.TrimSpace(p.Name)
		if name == "" && amount <= 0 {
			sheet.Skipped = append(sheet.Skipped, i)
			continue
		}

		entry := Entry{
			Index:       i,
			Name:        name,
			Contributed: amount,
		}
		if name == "" {
			entry.Name = Placeholder(opts.PlaceholderPrefix, p.ID, i)
			entry.Placeholder = true
		}
		sheet.Entries = append(sheet.Entries, entry)

		total, err := money.Add(sheet.Total, amount)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		sheet.Total = total
	}

	n := len(sheet.Entries)
	if n < MinParticipants {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientParticipants, n)
	}

	// Step 2: equal shares and the displayed average
	shares, err := money.Split(sheet.Total, n)
	if err != nil {
		return nil, err
	}
	sheet.Average, err = money.DivRound(sheet.Total, n)
	if err != nil {
		return nil, err
	}

	// Step 3: balances
	for i := range sheet.Entries {
		e := &sheet.Entries[i]
		e.Share = shares[i]
		e.Balance = e.Contributed - e.Share
		e.Role = classify(e.Balance)
	}

	return sheet, nil
}

// Placeholder builds the display name for an unnamed row. It uses the
// first three characters of the row ID, or the 1-based position when the
// row has no ID, so the same input always yields the same name.
func Placeholder(prefix, id string, index int) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return prefix + " " + strconv.Itoa(index+1)
	}
	runes := []rune(id)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return prefix + " " + string(runes)
}

func classify(b money.Amount) Role {
	switch {
	case b < 0:
		return RoleDebtor
	case b > 0:
		return RoleCreditor
	default:
		return RoleSettled
	}
}

// Debtors returns entries with a negative balance, in input order.
func (s *Sheet) Debtors() []Entry {
	return s.filter(RoleDebtor)
}

// Creditors returns entries with a positive balance, in input order.
func (s *Sheet) Creditors() []Entry {
	return s.filter(RoleCreditor)
}

// Count returns the number of included participants.
func (s *Sheet) Count() int {
	return len(s.Entries)
}

// BalanceSum returns the sum of all balances. It is zero for any sheet
// produced by Calculate.
func (s *Sheet) BalanceSum() money.Amount {
	var sum money.Amount
	for _, e := range s.Entries {
		sum += e.Balance
	}
	return sum
}

func (s *Sheet) filter(role Role) []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}
