package store

import (
	"context"
	"testing"

	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_InMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	created, err := s.Create(ctx, "155", "crisps", 74, 21)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := s.FindByCode(ctx, "155")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = s.Create(ctx, "155", "peanuts", 87, 2)
	assert.ErrorIs(t, err, perrors.ErrProductExists)

	_, err = s.FindByCode(ctx, "156")
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
}

func Test_InMemoryStore_FindAll(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	list, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, code := range []string{"c1", "a1", "b1"} {
		_, err := s.Create(ctx, code, "item "+code, 100, 1)
		require.NoError(t, err)
	}

	list, err = s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a1", "b1", "c1"}, []string{list[0].Code, list[1].Code, list[2].Code})
}

func Test_InMemoryStore_AddItems(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	_, err := s.Create(ctx, "155", "crisps", 74, 0)
	require.NoError(t, err)

	updated, err := s.AddItems(ctx, "155", 21)
	require.NoError(t, err)
	assert.Equal(t, int32(21), updated.Available)

	_, err = s.AddItems(ctx, "156", 1)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
}

func Test_InMemoryStore_Dispense(t *testing.T) {
	testCases := []struct {
		name          string
		available     int32
		code          string
		expected      int32
		expectedError error
	}{
		{name: "Success - last item", available: 1, code: "144", expected: 0},
		{name: "Success - items remain", available: 2, code: "144", expected: 1},
		{name: "Error - out of stock", available: 0, code: "144", expectedError: perrors.ErrOutOfStock},
		{name: "Error - unknown code", available: 2, code: "999", expectedError: perrors.ErrProductNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			s := NewInMemoryStore()
			_, err := s.Create(ctx, "144", "peanuts", 87, tc.available)
			require.NoError(t, err)
			// when
			p, err := s.Dispense(ctx, tc.code)
			// then
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p.Available)
		})
	}
}

func Test_MigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/vending", migrateURL("postgres://u:p@db:5432/vending"))
	assert.Equal(t, "pgx5://db/vending", migrateURL("postgresql://db/vending"))
	assert.Equal(t, "pgx5://db/vending", migrateURL("pgx5://db/vending"))
}
