package game

import (
	"fmt"
	"strings"
	"time"
)

// Decision is one player's choice. The zero value marks an empty slot.
type Decision uint8

const (
	DecisionUnset Decision = 0
	DecisionSteal Decision = 1
	DecisionSplit Decision = 2
)

func (d Decision) String() string {
	switch d {
	case DecisionSteal:
		return "steal"
	case DecisionSplit:
		return "split"
	default:
		return "unset"
	}
}

// ParseDecision maps the wire form ("split"/"steal") onto a Decision.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(s) {
	case "steal":
		return DecisionSteal, nil
	case "split":
		return DecisionSplit, nil
	default:
		return DecisionUnset, fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
}

// Status is the room lifecycle state. Resolved and Locked are terminal.
type Status uint8

const (
	StatusOpen     Status = 0 // waiting for a second player
	StatusActive   Status = 1 // both stakes escrowed, waiting for decisions
	StatusResolved Status = 2 // payouts distributed
	StatusLocked   Status = 3 // pot forfeited to contract custody
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusActive:
		return "active"
	case StatusResolved:
		return "resolved"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Room is the escrow and state unit for one two-party game.
// Ledger methods return it by value so callers only ever see snapshots.
type Room struct {
	ID         uint64
	Player1    string
	Player2    string
	Stake      int64
	Decision1  Decision
	Decision2  Decision
	StartTime  time.Time
	ResolvedAt time.Time
	Status     Status
	Message    string
}

// Terminal reports whether the room can never mutate again.
func (r *Room) Terminal() bool {
	return r.Status == StatusResolved || r.Status == StatusLocked
}

// Deadline is the instant after which decisions are no longer accepted.
// Only meaningful once the room is Active.
func (r *Room) Deadline(window time.Duration) time.Time {
	return r.StartTime.Add(window)
}
