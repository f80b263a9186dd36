// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Product is a product line held by the machine, identified by its slot code.
type Product struct {
	ID        uuid.UUID `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	Price     int64     `db:"price"` // Price in pence
	Available int32     `db:"available"`
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByCode retrieves a single product by its slot code.
	// Returns ErrProductNotFound if no product exists with the given code.
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindAll returns all products ordered by code.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Create adds a new product line.
	// Returns ErrProductExists if the code is already taken.
	Create(ctx context.Context, code, name string, price int64, available int32) (*Product, error)

	// AddItems increases the number of items available for a product.
	// Returns ErrProductNotFound if no product exists with the given code.
	AddItems(ctx context.Context, code string, count int32) (*Product, error)

	// Dispense takes one item of a product out of stock.
	// Returns ErrProductNotFound if no product exists with the given code
	// and ErrOutOfStock if no items are left.
	Dispense(ctx context.Context, code string) (*Product, error)
}
