package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTurn = errors.New("invalid turn")

// Turn is one agent's contribution to the conversation, in speaking order.
type Turn struct {
	Speaker  AgentID `json:"speaker"`
	Text     string  `json:"text"`
	Sequence int     `json:"sequence"`
}

// NewTurn validates the shape of a turn at the ingestion boundary.
func NewTurn(speaker AgentID, text string, sequence int) (Turn, error) {
	if _, err := ParseAgentID(string(speaker)); err != nil {
		return Turn{}, fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}
	if sequence < 1 {
		return Turn{}, fmt.Errorf("%w: sequence must be >= 1, got %d", ErrInvalidTurn, sequence)
	}
	return Turn{Speaker: speaker, Text: text, Sequence: sequence}, nil
}

// IsBlank reports whether the turn carries no text worth mining.
func (t Turn) IsBlank() bool {
	return strings.TrimSpace(t.Text) == ""
}

// SpecialistTurns filters out the requester's turns, keeping order.
func SpecialistTurns(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Speaker.IsRequester() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DistinctSpecialists counts the specialists that have produced at least one turn.
func DistinctSpecialists(turns []Turn) int {
	seen := make(map[AgentID]struct{}, SpecialistsNeeded)
	for _, t := range turns {
		if t.Speaker.IsRequester() {
			continue
		}
		seen[t.Speaker] = struct{}{}
	}
	return len(seen)
}
