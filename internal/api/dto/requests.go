package dto

import (
	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

// ParticipantRequest is one participant in a request body. Amount may be
// a JSON string or number.
type ParticipantRequest struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Amount money.RawAmount `json:"amount"`
}

// SettleRequest is the body of POST /api/settlements.
type SettleRequest struct {
	Participants []ParticipantRequest `json:"participants"`
}

// ToParticipants converts the request for the engine, preserving order.
func (r SettleRequest) ToParticipants() []balance.Participant {
	out := make([]balance.Participant, len(r.Participants))
	for i, p := range r.Participants {
		out[i] = balance.Participant{ID: p.ID, Name: p.Name, Amount: p.Amount}
	}
	return out
}

// CreateSheetRequest is the optional body of POST /api/sheets.
type CreateSheetRequest struct {
	Rows []RowRequest `json:"rows"`
}

// RowRequest adds a row to a sheet.
type RowRequest struct {
	Name   string          `json:"name"`
	Amount money.RawAmount `json:"amount"`
}

// UpdateRowRequest changes a row; absent fields are left alone.
type UpdateRowRequest struct {
	Name   *string          `json:"name"`
	Amount *money.RawAmount `json:"amount"`
}
