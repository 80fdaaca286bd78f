package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

func entry(index int, name string, bal money.Amount) balance.Entry {
	return balance.Entry{Index: index, Name: name, Balance: bal}
}

func TestMatch_LargestFirst(t *testing.T) {
	debtors := []balance.Entry{entry(1, "B", -3333), entry(2, "C", -13333)}
	creditors := []balance.Entry{entry(0, "A", 16666)}

	txns, err := Match(debtors, creditors)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "C", txns[0].From)
	assert.Equal(t, "A", txns[0].To)
	assert.Equal(t, money.Amount(13333), txns[0].Amount)
	assert.Equal(t, 2, txns[0].FromIndex)
	assert.Equal(t, 0, txns[0].ToIndex)

	assert.Equal(t, "B", txns[1].From)
	assert.Equal(t, money.Amount(3333), txns[1].Amount)
}

func TestMatch_Empty(t *testing.T) {
	txns, err := Match(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestMatch_ExactTieAdvancesBoth(t *testing.T) {
	txns, err := Match(
		[]balance.Entry{entry(0, "D1", -500), entry(1, "D2", -200)},
		[]balance.Entry{entry(2, "C1", 500), entry(3, "C2", 200)},
	)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, Transaction{From: "D1", To: "C1", Amount: 500, FromIndex: 0, ToIndex: 2}, txns[0])
	assert.Equal(t, Transaction{From: "D2", To: "C2", Amount: 200, FromIndex: 1, ToIndex: 3}, txns[1])
}

func TestMatch_SplitsAcrossCreditors(t *testing.T) {
	txns, err := Match(
		[]balance.Entry{entry(0, "D", -900)},
		[]balance.Entry{entry(1, "C1", 300), entry(2, "C2", 600)},
	)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "C2", txns[0].To)
	assert.Equal(t, money.Amount(600), txns[0].Amount)
	assert.Equal(t, "C1", txns[1].To)
	assert.Equal(t, money.Amount(300), txns[1].Amount)
}

func TestMatch_TiesKeepInputOrder(t *testing.T) {
	txns, err := Match(
		[]balance.Entry{entry(0, "X", -100), entry(1, "Y", -100)},
		[]balance.Entry{entry(2, "P", 100), entry(3, "Q", 100)},
	)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "X", txns[0].From)
	assert.Equal(t, "P", txns[0].To)
	assert.Equal(t, "Y", txns[1].From)
	assert.Equal(t, "Q", txns[1].To)
}

func TestMatch_UnbalancedInputIsInvariantViolation(t *testing.T) {
	t.Run("debt exceeds credit", func(t *testing.T) {
		_, err := Match(
			[]balance.Entry{entry(0, "D", -100)},
			[]balance.Entry{entry(1, "C", 50)},
		)
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})

	t.Run("credit without debt", func(t *testing.T) {
		_, err := Match(nil, []balance.Entry{entry(0, "C", 50)})
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})

	t.Run("zero creditor balance", func(t *testing.T) {
		_, err := Match(
			[]balance.Entry{entry(0, "D", -100)},
			[]balance.Entry{entry(1, "C", 0)},
		)
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})
}
