// Package coin implements the change-handling core of the vending machine: one ledger per
// denomination and a registry that routes inserted coins and selects exact change.
package coin

import (
	"fmt"

	coinerrors "github.com/abgdnv/vending/internal/coin/errors"
)

// Ledger tracks the stock of a single denomination together with two transaction-scoped
// staging areas: coins inserted by the current customer and coins held aside as change.
// Ledgers are created by the Registry and are never shared between registries.
type Ledger struct {
	denomination Denomination
	unitValue    int
	capacity     int
	available    int
	held         int
	inserted     int
}

func newLedger(d Denomination, unitValue, capacity int) *Ledger {
	return &Ledger{
		denomination: d,
		unitValue:    unitValue,
		capacity:     capacity,
	}
}

func (l *Ledger) Denomination() Denomination { return l.denomination }
func (l *Ledger) UnitValue() int             { return l.unitValue }
func (l *Ledger) Capacity() int              { return l.capacity }
func (l *Ledger) Available() int             { return l.available }
func (l *Ledger) Held() int                  { return l.held }
func (l *Ledger) Inserted() int              { return l.inserted }

// AddStock increases the available coins by n.
// Returns ErrCapacityExceeded if the ledger cannot take all n coins; nothing is added in that case.
func (l *Ledger) AddStock(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cannot add %d %s coins", coinerrors.ErrInvalidQuantity, n, l.denomination)
	}
	if l.available+n > l.capacity {
		return fmt.Errorf("%w: %s holds %d of %d, cannot add %d",
			coinerrors.ErrCapacityExceeded, l.denomination, l.available, l.capacity, n)
	}
	l.available += n
	return nil
}

// RemoveStock decreases the available coins by n.
// Returns ErrInsufficientStock if fewer than n coins are available.
func (l *Ledger) RemoveStock(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cannot remove %d %s coins", coinerrors.ErrInvalidQuantity, n, l.denomination)
	}
	if n > l.available {
		return fmt.Errorf("%w: %s holds %d, cannot remove %d",
			coinerrors.ErrInsufficientStock, l.denomination, l.available, n)
	}
	l.available -= n
	return nil
}

// RemainingSpace returns how many more coins fit in the ledger.
func (l *Ledger) RemainingSpace() int {
	return l.capacity - l.available
}

// TotalValue returns the value of the available coins.
func (l *Ledger) TotalValue() int {
	return l.available * l.unitValue
}

// HoldForPayout earmarks n coins for the change payout in progress.
// The previous hold is replaced, not accumulated, and the available stock is not touched.
func (l *Ledger) HoldForPayout(n int) {
	l.held = n
}

// HeldValue returns the value of the coins held for payout.
func (l *Ledger) HeldValue() int {
	return l.held * l.unitValue
}

// SettleHeld removes the held coins from stock and reports them as a payout.
// The boolean is false when nothing is held.
//
// SettleHeld leaves the hold in place. A caller that settles twice without calling
// ResetHeld in between pays the same coins out twice; the Registry resets all holds at
// the start of every exact-change computation.
func (l *Ledger) SettleHeld() (Payout, bool, error) {
	if l.held == 0 {
		return Payout{}, false, nil
	}
	if err := l.RemoveStock(l.held); err != nil {
		return Payout{}, false, err
	}
	return Payout{
		Denomination: l.denomination,
		Count:        l.held,
		Value:        l.held * l.unitValue,
	}, true, nil
}

// ResetHeld clears the hold.
func (l *Ledger) ResetHeld() {
	l.held = 0
}

// InsertOne records one coin of this denomination placed into the machine by a customer.
func (l *Ledger) InsertOne() {
	l.inserted++
}

// InsertedValue returns the value of the coins inserted in the current transaction.
func (l *Ledger) InsertedValue() int {
	return l.inserted * l.unitValue
}

// ReturnInserted hands back the inserted coins. The boolean is false when none were inserted.
func (l *Ledger) ReturnInserted() (int, bool) {
	if l.inserted == 0 {
		return 0, false
	}
	n := l.inserted
	l.inserted = 0
	return n, true
}

// AcceptInserted folds the inserted coins into stock, as many as there is room for,
// and returns the number that did not fit.
func (l *Ledger) AcceptInserted() int {
	usable := min(l.RemainingSpace(), l.inserted)
	// usable never exceeds the remaining space, so AddStock cannot fail here
	_ = l.AddStock(usable)
	excess := l.inserted - usable
	l.inserted = 0
	return excess
}
