package coin

import (
	"cmp"
	"fmt"
	"slices"

	coinerrors "github.com/abgdnv/vending/internal/coin/errors"
)

// DefaultCapacity is the number of coins a ledger holds when no capacity is configured.
const DefaultCapacity = 1000

// LedgerSpec describes one supported denomination when building a Registry.
type LedgerSpec struct {
	Denomination Denomination
	UnitValue    int
	Capacity     int
	Stock        int
}

// DefaultSpecs returns the canonical coinage with default capacity and no stock.
func DefaultSpecs() []LedgerSpec {
	denoms := AllDenominations()
	specs := make([]LedgerSpec, 0, len(denoms))
	for _, d := range denoms {
		specs = append(specs, LedgerSpec{
			Denomination: d,
			UnitValue:    d.CanonicalValue(),
			Capacity:     DefaultCapacity,
		})
	}
	return specs
}

// Registry owns one Ledger per supported denomination and the overflow bucket.
//
// Registry does no locking. Callers that share a Registry between goroutines must
// serialise whole transactions, from CanPayExactChange through DispenseChange.
type Registry struct {
	ledgers    []*Ledger // declaration order
	descending []*Ledger // strictly descending unit value
	index      [maxDenomination + 1]*Ledger
	overflow   []Count
}

// NewRegistry creates a Registry with the given denominations, in the given order.
// The set of denominations is fixed for the lifetime of the Registry.
func NewRegistry(specs []LedgerSpec) (*Registry, error) {
	r := &Registry{
		ledgers:  make([]*Ledger, 0, len(specs)),
		overflow: []Count{},
	}
	for _, s := range specs {
		if !s.Denomination.Valid() {
			return nil, fmt.Errorf("%w: %d", coinerrors.ErrUnknownDenomination, uint8(s.Denomination))
		}
		if r.index[s.Denomination] != nil {
			return nil, fmt.Errorf("denomination %s declared more than once", s.Denomination)
		}
		if s.UnitValue < 1 {
			return nil, fmt.Errorf("%w: unit value of %s must be positive, got %d",
				coinerrors.ErrInvalidQuantity, s.Denomination, s.UnitValue)
		}
		if s.Capacity < 0 || s.Stock < 0 {
			return nil, fmt.Errorf("%w: capacity and stock of %s must not be negative",
				coinerrors.ErrInvalidQuantity, s.Denomination)
		}
		l := newLedger(s.Denomination, s.UnitValue, s.Capacity)
		if err := l.AddStock(s.Stock); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", s.Denomination, err)
		}
		r.ledgers = append(r.ledgers, l)
		r.index[s.Denomination] = l
	}

	r.descending = slices.Clone(r.ledgers)
	slices.SortStableFunc(r.descending, func(a, b *Ledger) int {
		return cmp.Compare(b.unitValue, a.unitValue)
	})
	return r, nil
}

// Ledger returns the ledger for d. The boolean is false if d is not supported.
func (r *Registry) Ledger(d Denomination) (*Ledger, bool) {
	if !d.Valid() || r.index[d] == nil {
		return nil, false
	}
	return r.index[d], true
}

// Denominations returns the supported denominations in declaration order.
func (r *Registry) Denominations() []Denomination {
	out := make([]Denomination, len(r.ledgers))
	for i, l := range r.ledgers {
		out[i] = l.denomination
	}
	return out
}

func (r *Registry) lookup(d Denomination) (*Ledger, error) {
	l, ok := r.Ledger(d)
	if !ok {
		return nil, fmt.Errorf("%w: %s", coinerrors.ErrUnknownDenomination, d)
	}
	return l, nil
}

// AddStock tops up the change held for d by n coins. At least one coin must be added.
func (r *Registry) AddStock(d Denomination, n int) error {
	l, err := r.lookup(d)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("%w: at least one coin must be added, got %d", coinerrors.ErrInvalidQuantity, n)
	}
	return l.AddStock(n)
}

// InsertCoin records a customer inserting one coin of denomination d.
func (r *Registry) InsertCoin(d Denomination) error {
	l, err := r.lookup(d)
	if err != nil {
		return err
	}
	l.InsertOne()
	return nil
}

// InsertedTotalValue returns the value of all coins inserted in the current transaction.
func (r *Registry) InsertedTotalValue() int {
	total := 0
	for _, l := range r.ledgers {
		total += l.InsertedValue()
	}
	return total
}

// ReturnInsertedCoins hands back every inserted coin, listed in declaration order.
// Denominations with nothing inserted are left out.
func (r *Registry) ReturnInsertedCoins() []Count {
	returned := []Count{}
	for _, l := range r.ledgers {
		if n, ok := l.ReturnInserted(); ok {
			returned = append(returned, Count{Denomination: l.denomination, Count: n})
		}
	}
	return returned
}

// ResetHeldCoins clears the hold on every ledger.
func (r *Registry) ResetHeldCoins() {
	for _, l := range r.ledgers {
		l.ResetHeld()
	}
}

// CanPayExactChange reports whether amount can be paid from stock and, if so, leaves the
// coins to pay it held on the ledgers, ready for DispenseChange.
//
// Ledgers are visited in descending unit value and each takes as many coins as fit into
// what remains. The search is greedy: it never backtracks, so an amount that only a
// different mix of coins could reach is reported as not payable. For canonical coinage with
// enough stock of each denomination the greedy choice is also the optimal one.
func (r *Registry) CanPayExactChange(amount int) bool {
	r.ResetHeldCoins()
	if amount < 0 {
		return false
	}

	remaining := amount
	for _, l := range r.descending {
		if remaining == 0 {
			break
		}
		optimal := remaining / l.unitValue
		if optimal == 0 {
			continue
		}
		l.HoldForPayout(min(optimal, l.available))
		remaining -= l.HeldValue()
	}
	return remaining == 0
}

// DispenseChange pays out the held coins, in declaration order, and then folds the coins
// inserted by the customer into stock.
//
// The holds themselves stay in place after settlement; CanPayExactChange must run again
// before the next payout. If any hold exceeds its stock, ErrInsufficientStock is returned
// and nothing is paid out or accepted.
func (r *Registry) DispenseChange() ([]Payout, error) {
	for _, l := range r.ledgers {
		if l.held > l.available {
			return nil, fmt.Errorf("%w: %s holds %d for payout but only %d available",
				coinerrors.ErrInsufficientStock, l.denomination, l.held, l.available)
		}
	}

	payouts := []Payout{}
	for _, l := range r.ledgers {
		p, ok, err := l.SettleHeld()
		if err != nil {
			return nil, err
		}
		if ok {
			payouts = append(payouts, p)
		}
	}
	r.AcceptAllInserted()
	return payouts, nil
}

// TotalValue returns the value of all coins in stock.
func (r *Registry) TotalValue() int {
	total := 0
	for _, l := range r.ledgers {
		total += l.TotalValue()
	}
	return total
}

// AcceptAllInserted folds every ledger's inserted coins into stock. Coins that do not fit
// are appended to the overflow bucket, one entry per denomination per call.
func (r *Registry) AcceptAllInserted() {
	for _, l := range r.ledgers {
		if excess := l.AcceptInserted(); excess > 0 {
			r.overflow = append(r.overflow, Count{Denomination: l.denomination, Count: excess})
		}
	}
}

// Overflow returns a copy of the overflow bucket without emptying it.
func (r *Registry) Overflow() []Count {
	return slices.Clone(r.overflow)
}

// DrainOverflow empties the overflow bucket and returns what it held.
func (r *Registry) DrainOverflow() []Count {
	drained := r.overflow
	r.overflow = []Count{}
	return drained
}
