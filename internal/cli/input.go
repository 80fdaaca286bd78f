package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

// ParseArgs turns Name=amount arguments into participants. The last "="
// separates name and amount; an argument without "=" is a name with no
// amount.
func ParseArgs(args []string) []balance.Participant {
	participants := make([]balance.Participant, 0, len(args))
	for _, arg := range args {
		name, amount := arg, ""
		if i := strings.LastIndex(arg, "="); i >= 0 {
			name, amount = arg[:i], arg[i+1:]
		}
		participants = append(participants, balance.Participant{
			Name:   strings.TrimSpace(name),
			Amount: money.RawAmount(amount),
		})
	}
	return participants
}

// ReadParticipants reads a JSON participant list from path ("-" reads
// stdin). Both a bare array and {"participants": [...]} are accepted.
func ReadParticipants(path string, stdin io.Reader) ([]balance.Participant, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return DecodeParticipants(data)
}

// DecodeParticipants decodes a JSON participant list.
func DecodeParticipants(data []byte) ([]balance.Participant, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []balance.Participant
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("invalid participants file: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Participants []balance.Participant `json:"participants"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid participants file: %w", err)
	}
	return wrapped.Participants, nil
}
