package game

import "errors"

// Every failure is a no-op on ledger state and is reported synchronously.
var (
	// Validation errors: bad input, safe to retry with corrected input.
	ErrInvalidStake    = errors.New("stake amount must be positive")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrSelfJoin        = errors.New("can't join own room")
	ErrNotAParticipant = errors.New("not a participant of this room")
	ErrRoomNotFound    = errors.New("room not found")

	// State errors: transition illegal for the current room status.
	ErrRoomNotOpen           = errors.New("room is not open")
	ErrRoomNotActive         = errors.New("room is not active")
	ErrDecisionAlreadyMade   = errors.New("decision already made")
	ErrDecisionWindowExpired = errors.New("decision window expired")
	ErrWindowNotYetExpired   = errors.New("decision window not yet expired")

	// Custody errors: the escrow transfer did not complete.
	ErrTransferFailed = errors.New("token transfer failed")

	// Authorization errors.
	ErrUnauthorized = errors.New("unauthorized")
)
