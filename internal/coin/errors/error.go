// Package errors provides the error kinds returned by the coin ledgers and the change registry.
//
// The set is closed: every failing coin operation returns one of these values,
// optionally wrapped with context, and leaves the ledgers unchanged.
package errors

import "errors"

var (
	// ErrCapacityExceeded is returned when adding stock would exceed a ledger's capacity.
	ErrCapacityExceeded = errors.New("coin capacity exceeded")
	// ErrInsufficientStock is returned when removing more coins than a ledger holds.
	ErrInsufficientStock = errors.New("insufficient coin stock")
	// ErrUnknownDenomination is returned for a denomination the registry does not support.
	ErrUnknownDenomination = errors.New("unknown denomination")
	// ErrInvalidQuantity is returned when a quantity argument is below the required minimum.
	ErrInvalidQuantity = errors.New("invalid coin quantity")
)
