// Package errors provides the errors a vending session can end with.
package errors

import "errors"

var (
	ErrNoProductSelected      = errors.New("no product selected")
	ErrInsufficientFunds      = errors.New("insufficient funds inserted")
	ErrProductUnavailable     = errors.New("selected product is unavailable")
	ErrExactChangeUnavailable = errors.New("exact change unavailable")
)
