package coin

import (
	"fmt"

	coinerrors "github.com/abgdnv/vending/internal/coin/errors"
)

// Denomination identifies a coin type. The zero value is not a valid denomination.
type Denomination uint8

// Canonical coinage, declared in ascending value order.
const (
	P1 Denomination = iota + 1
	P2
	P5
	P10
	P20
	P50
	P100
	P200
)

const maxDenomination = P200

var denominationNames = [...]string{
	P1:   "p1",
	P2:   "p2",
	P5:   "p5",
	P10:  "p10",
	P20:  "p20",
	P50:  "p50",
	P100: "p100",
	P200: "p200",
}

// canonicalValues holds the value of one coin in pence.
var canonicalValues = [...]int{
	P1:   1,
	P2:   2,
	P5:   5,
	P10:  10,
	P20:  20,
	P50:  50,
	P100: 100,
	P200: 200,
}

// AllDenominations returns the canonical denominations in ascending value order.
func AllDenominations() []Denomination {
	return []Denomination{P1, P2, P5, P10, P20, P50, P100, P200}
}

// Valid reports whether d is one of the declared denominations.
func (d Denomination) Valid() bool {
	return d >= P1 && d <= maxDenomination
}

// CanonicalValue returns the value of one coin of d in pence, or 0 for an invalid denomination.
func (d Denomination) CanonicalValue() int {
	if !d.Valid() {
		return 0
	}
	return canonicalValues[d]
}

func (d Denomination) String() string {
	if !d.Valid() {
		return fmt.Sprintf("denomination(%d)", uint8(d))
	}
	return denominationNames[d]
}

// MarshalText encodes d by its symbolic name, so JSON and config keys read "p20" rather than 5.
func (d Denomination) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", coinerrors.ErrUnknownDenomination, uint8(d))
	}
	return []byte(denominationNames[d]), nil
}

// UnmarshalText decodes a symbolic name such as "p50".
func (d *Denomination) UnmarshalText(text []byte) error {
	parsed, err := ParseDenomination(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDenomination resolves a symbolic name to its Denomination.
// Returns ErrUnknownDenomination if the name is not declared.
func ParseDenomination(name string) (Denomination, error) {
	for d := P1; d <= maxDenomination; d++ {
		if denominationNames[d] == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", coinerrors.ErrUnknownDenomination, name)
}

// Payout is a batch of coins paid out as change.
// Value is always Count multiplied by the unit value of the denomination.
type Payout struct {
	Denomination Denomination `json:"denomination"`
	Count        int          `json:"count"`
	Value        int          `json:"value"`
}

// Count is a number of coins of one denomination, used for returned coins and overflow entries.
type Count struct {
	Denomination Denomination `json:"denomination"`
	Count        int          `json:"count"`
}
