// Package bank moves the game's fungible asset between player accounts and
// contract custody. Escrow follows the approve/transferFrom model: a player
// grants the contract an allowance, Pull draws against it.
package bank

import "errors"

var (
	ErrUnknownAccount        = errors.New("unknown account")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Bank is the custody collaborator of the room ledger.
type Bank interface {
	// Pull draws pre-authorized funds from an account into contract custody.
	Pull(from string, amount int64) error
	// Push pays funds out of contract custody to an account.
	Push(to string, amount int64) error
}
