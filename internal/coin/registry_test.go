package coin

import (
	"testing"

	coinerrors "github.com/abgdnv/vending/internal/coin/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureStock is the change loaded into the machine in most tests.
var fixtureStock = map[Denomination]int{
	P1:   200,
	P2:   100,
	P5:   300,
	P10:  80,
	P20:  100,
	P50:  40,
	P100: 30,
	P200: 20,
}

// fixtureValue is the total value of fixtureStock in pence.
const fixtureValue = 1*200 + 2*100 + 5*300 + 10*80 + 20*100 + 50*40 + 100*30 + 200*20

func newFixtureRegistry(t *testing.T) *Registry {
	t.Helper()
	specs := DefaultSpecs()
	for i := range specs {
		specs[i].Stock = fixtureStock[specs[i].Denomination]
	}
	r, err := NewRegistry(specs)
	require.NoError(t, err)
	return r
}

func emptyLedgers(t *testing.T, r *Registry, denoms ...Denomination) {
	t.Helper()
	for _, d := range denoms {
		l, ok := r.Ledger(d)
		require.True(t, ok)
		require.NoError(t, l.RemoveStock(l.Available()))
	}
}

func Test_NewRegistry(t *testing.T) {
	testCases := []struct {
		name          string
		specs         []LedgerSpec
		expectedError error
	}{
		{
			name:  "Success - default coinage",
			specs: DefaultSpecs(),
		},
		{
			name:          "Error - invalid denomination",
			specs:         []LedgerSpec{{Denomination: 0, UnitValue: 1, Capacity: 10}},
			expectedError: coinerrors.ErrUnknownDenomination,
		},
		{
			name:          "Error - non positive unit value",
			specs:         []LedgerSpec{{Denomination: P1, UnitValue: 0, Capacity: 10}},
			expectedError: coinerrors.ErrInvalidQuantity,
		},
		{
			name:          "Error - stock above capacity",
			specs:         []LedgerSpec{{Denomination: P1, UnitValue: 1, Capacity: 10, Stock: 11}},
			expectedError: coinerrors.ErrCapacityExceeded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRegistry(tc.specs)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}

	t.Run("Error - duplicate denomination", func(t *testing.T) {
		_, err := NewRegistry([]LedgerSpec{
			{Denomination: P1, UnitValue: 1, Capacity: 10},
			{Denomination: P1, UnitValue: 1, Capacity: 10},
		})
		assert.Error(t, err)
	})
}

func Test_Registry_Denominations(t *testing.T) {
	r := newFixtureRegistry(t)

	assert.Equal(t, []Denomination{P1, P2, P5, P10, P20, P50, P100, P200}, r.Denominations())
}

func Test_Registry_Ledger(t *testing.T) {
	r, err := NewRegistry([]LedgerSpec{{Denomination: P10, UnitValue: 10, Capacity: 5, Stock: 2}})
	require.NoError(t, err)

	l, ok := r.Ledger(P10)
	require.True(t, ok)
	assert.Equal(t, 2, l.Available())
	assert.Equal(t, 5, l.Capacity())

	_, ok = r.Ledger(P20)
	assert.False(t, ok)
	_, ok = r.Ledger(Denomination(42))
	assert.False(t, ok)
}

func Test_Registry_AddStock(t *testing.T) {
	r := newFixtureRegistry(t)

	require.NoError(t, r.AddStock(P1, 500))
	require.NoError(t, r.AddStock(P100, 20))

	p1, _ := r.Ledger(P1)
	p100, _ := r.Ledger(P100)
	assert.Equal(t, 700, p1.Available())
	assert.Equal(t, 50, p100.Available())

	assert.ErrorIs(t, r.AddStock(Denomination(99), 1), coinerrors.ErrUnknownDenomination)
	assert.ErrorIs(t, r.AddStock(P1, 0), coinerrors.ErrInvalidQuantity)
	assert.ErrorIs(t, r.AddStock(P1, 301), coinerrors.ErrCapacityExceeded)
	assert.Equal(t, 700, p1.Available())
}

func Test_Registry_TotalValue(t *testing.T) {
	r := newFixtureRegistry(t)
	assert.Equal(t, fixtureValue, r.TotalValue())

	require.NoError(t, r.AddStock(P50, 7))
	assert.Equal(t, fixtureValue+7*50, r.TotalValue())
}

func Test_Registry_InsertCoin(t *testing.T) {
	r := newFixtureRegistry(t)

	for _, d := range []Denomination{P1, P2, P50, P100} {
		require.NoError(t, r.InsertCoin(d))
	}
	assert.Equal(t, 153, r.InsertedTotalValue())
	assert.Equal(t, fixtureValue, r.TotalValue(), "inserted coins are not stock yet")

	assert.ErrorIs(t, r.InsertCoin(0), coinerrors.ErrUnknownDenomination)
}

func Test_Registry_ReturnInsertedCoins(t *testing.T) {
	r := newFixtureRegistry(t)
	assert.Empty(t, r.ReturnInsertedCoins())

	for _, d := range []Denomination{P100, P1, P2, P50, P1} {
		require.NoError(t, r.InsertCoin(d))
	}

	returned := r.ReturnInsertedCoins()

	assert.Equal(t, []Count{
		{Denomination: P1, Count: 2},
		{Denomination: P2, Count: 1},
		{Denomination: P50, Count: 1},
		{Denomination: P100, Count: 1},
	}, returned)
	assert.Equal(t, 0, r.InsertedTotalValue())
	assert.Equal(t, fixtureValue, r.TotalValue())
	for _, d := range r.Denominations() {
		l, _ := r.Ledger(d)
		assert.Equal(t, fixtureStock[d], l.Available())
	}
}

func Test_Registry_CanPayExactChange(t *testing.T) {
	testCases := []struct {
		name     string
		emptied  []Denomination
		amount   int
		expected bool
		held     map[Denomination]int
	}{
		{
			name:     "zero amount",
			amount:   0,
			expected: true,
			held:     map[Denomination]int{},
		},
		{
			name:     "73 with full stock",
			amount:   73,
			expected: true,
			held:     map[Denomination]int{P1: 1, P2: 1, P20: 1, P50: 1},
		},
		{
			name:     "473 with full stock",
			amount:   473,
			expected: true,
			held:     map[Denomination]int{P1: 1, P2: 1, P20: 1, P50: 1, P200: 2},
		},
		{
			name:     "73 with no 50p coins",
			emptied:  []Denomination{P50},
			amount:   73,
			expected: true,
			held:     map[Denomination]int{P1: 1, P2: 1, P10: 1, P20: 3},
		},
		{
			name:     "26 without small coins",
			emptied:  []Denomination{P1, P2, P5},
			amount:   26,
			expected: false,
		},
		{
			name:     "all small coins",
			emptied:  []Denomination{P10, P20, P50, P100, P200},
			amount:   1*200 + 2*100 + 5*300,
			expected: true,
			held:     map[Denomination]int{P1: 200, P2: 100, P5: 300},
		},
		{
			name:     "one more than all small coins",
			emptied:  []Denomination{P10, P20, P50, P100, P200},
			amount:   1*200 + 2*100 + 5*300 + 1,
			expected: false,
		},
		{
			name:     "negative amount",
			amount:   -5,
			expected: false,
			held:     map[Denomination]int{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := newFixtureRegistry(t)
			emptyLedgers(t, r, tc.emptied...)
			// when
			ok := r.CanPayExactChange(tc.amount)
			// then
			assert.Equal(t, tc.expected, ok)
			if tc.held == nil {
				return
			}
			for _, d := range r.Denominations() {
				l, _ := r.Ledger(d)
				assert.Equal(t, tc.held[d], l.Held(), "held %s", d)
			}
		})
	}
}

func Test_Registry_CanPayExactChange_GreedyDoesNotBacktrack(t *testing.T) {
	// 60 is three 20p coins, but the greedy pass takes the 50p first and is left with 10.
	r, err := NewRegistry([]LedgerSpec{
		{Denomination: P20, UnitValue: 20, Capacity: 10, Stock: 3},
		{Denomination: P50, UnitValue: 50, Capacity: 10, Stock: 1},
	})
	require.NoError(t, err)

	assert.False(t, r.CanPayExactChange(60))
}

func Test_Registry_CanPayExactChange_ResetsPreviousHolds(t *testing.T) {
	r := newFixtureRegistry(t)
	require.True(t, r.CanPayExactChange(473))

	require.True(t, r.CanPayExactChange(5))

	for _, d := range r.Denominations() {
		l, _ := r.Ledger(d)
		if d == P5 {
			assert.Equal(t, 1, l.Held())
			continue
		}
		assert.Equal(t, 0, l.Held(), "held %s", d)
	}
}

func Test_Registry_DispenseChange(t *testing.T) {
	r := newFixtureRegistry(t)

	require.True(t, r.CanPayExactChange(73))
	change, err := r.DispenseChange()
	require.NoError(t, err)
	assert.Equal(t, []Payout{
		{Denomination: P1, Count: 1, Value: 1},
		{Denomination: P2, Count: 1, Value: 2},
		{Denomination: P20, Count: 1, Value: 20},
		{Denomination: P50, Count: 1, Value: 50},
	}, change)

	require.True(t, r.CanPayExactChange(473))
	change, err = r.DispenseChange()
	require.NoError(t, err)
	assert.Equal(t, []Payout{
		{Denomination: P1, Count: 1, Value: 1},
		{Denomination: P2, Count: 1, Value: 2},
		{Denomination: P20, Count: 1, Value: 20},
		{Denomination: P50, Count: 1, Value: 50},
		{Denomination: P200, Count: 2, Value: 400},
	}, change)

	expected := map[Denomination]int{P1: 198, P2: 98, P5: 300, P10: 80, P20: 98, P50: 38, P100: 30, P200: 18}
	for _, d := range r.Denominations() {
		l, _ := r.Ledger(d)
		assert.Equal(t, expected[d], l.Available(), "available %s", d)
	}
	assert.Equal(t, fixtureValue-73-473, r.TotalValue())
}

func Test_Registry_DispenseChange_AcceptsInsertedCoins(t *testing.T) {
	r := newFixtureRegistry(t)
	require.NoError(t, r.InsertCoin(P100))

	require.True(t, r.CanPayExactChange(26))
	change, err := r.DispenseChange()

	require.NoError(t, err)
	assert.Equal(t, []Payout{
		{Denomination: P1, Count: 1, Value: 1},
		{Denomination: P5, Count: 1, Value: 5},
		{Denomination: P20, Count: 1, Value: 20},
	}, change)
	p100, _ := r.Ledger(P100)
	assert.Equal(t, 31, p100.Available())
	assert.Equal(t, 0, r.InsertedTotalValue())
}

func Test_Registry_DispenseChange_HoldsSurviveSettlement(t *testing.T) {
	r := newFixtureRegistry(t)
	require.True(t, r.CanPayExactChange(50))

	_, err := r.DispenseChange()
	require.NoError(t, err)

	p50, _ := r.Ledger(P50)
	assert.Equal(t, 1, p50.Held())
	assert.Equal(t, 39, p50.Available())

	// dispensing again without a new check pays the same hold a second time
	change, err := r.DispenseChange()
	require.NoError(t, err)
	assert.Equal(t, []Payout{{Denomination: P50, Count: 1, Value: 50}}, change)
	assert.Equal(t, 38, p50.Available())
}

func Test_Registry_DispenseChange_InsufficientStock(t *testing.T) {
	r := newFixtureRegistry(t)
	require.NoError(t, r.InsertCoin(P10))
	p1, _ := r.Ledger(P1)
	p200, _ := r.Ledger(P200)
	p1.HoldForPayout(1)
	p200.HoldForPayout(21)

	change, err := r.DispenseChange()

	assert.ErrorIs(t, err, coinerrors.ErrInsufficientStock)
	assert.Nil(t, change)
	assert.Equal(t, 200, p1.Available())
	assert.Equal(t, 20, p200.Available())
	assert.Equal(t, 10, r.InsertedTotalValue())
}

func Test_Registry_AcceptAllInserted(t *testing.T) {
	r := newFixtureRegistry(t)
	ledger := func(d Denomination) *Ledger {
		l, _ := r.Ledger(d)
		return l
	}

	require.NoError(t, r.InsertCoin(P1))
	r.AcceptAllInserted()
	assert.Equal(t, 201, ledger(P1).Available())

	require.NoError(t, r.InsertCoin(P1))
	r.AcceptAllInserted()
	assert.Equal(t, 202, ledger(P1).Available())

	for range 22 {
		require.NoError(t, r.InsertCoin(P10))
	}
	r.AcceptAllInserted()
	assert.Equal(t, 102, ledger(P10).Available())
	assert.Empty(t, r.Overflow())

	p20Space := ledger(P20).RemainingSpace()
	for range 1000 {
		require.NoError(t, r.InsertCoin(P20))
	}
	r.AcceptAllInserted()
	assert.Equal(t, ledger(P20).Capacity(), ledger(P20).Available())
	assert.Equal(t, []Count{{Denomination: P20, Count: 1000 - p20Space}}, r.Overflow())

	p50Space := ledger(P50).RemainingSpace()
	for range 2000 {
		require.NoError(t, r.InsertCoin(P50))
	}
	r.AcceptAllInserted()
	assert.Equal(t, ledger(P50).Capacity(), ledger(P50).Available())
	assert.Equal(t, []Count{
		{Denomination: P20, Count: 1000 - p20Space},
		{Denomination: P50, Count: 2000 - p50Space},
	}, r.Overflow())

	// a second overflow of the same denomination gets its own entry
	for range 5 {
		require.NoError(t, r.InsertCoin(P20))
	}
	r.AcceptAllInserted()
	assert.Len(t, r.Overflow(), 3)
	assert.Equal(t, Count{Denomination: P20, Count: 5}, r.Overflow()[2])
}

func Test_Registry_DrainOverflow(t *testing.T) {
	r := newFixtureRegistry(t)
	assert.Empty(t, r.DrainOverflow())

	p10, _ := r.Ledger(P10)
	space := p10.RemainingSpace()
	for range 2000 {
		require.NoError(t, r.InsertCoin(P10))
	}
	r.AcceptAllInserted()

	drained := r.DrainOverflow()
	require.Len(t, drained, 1)
	assert.Equal(t, P10, drained[0].Denomination)
	assert.Equal(t, 2000-space, drained[0].Count)

	assert.Empty(t, r.DrainOverflow())
	assert.Empty(t, r.Overflow())
}

func Test_Registry_ReturnThenAccept(t *testing.T) {
	r := newFixtureRegistry(t)
	p1, _ := r.Ledger(P1)

	require.NoError(t, r.InsertCoin(P1))
	r.ReturnInsertedCoins()
	assert.Equal(t, 200, p1.Available())

	require.NoError(t, r.InsertCoin(P1))
	r.AcceptAllInserted()
	assert.Equal(t, 201, p1.Available())
}
