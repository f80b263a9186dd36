package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const productColumns = "id, code, name, price, available"

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindByCode retrieves a product by its code.
// Returns ErrProductNotFound if no product exists with the given code.
func (p *PgStore) FindByCode(ctx context.Context, code string) (*Product, error) {
	rows, _ := p.db.Query(ctx, "SELECT "+productColumns+" FROM products WHERE code = $1", code)
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by code: %w", err)
	}
	return &product, nil
}

// FindAll retrieves all products ordered by code.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, _ := p.db.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY code")
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// Create adds a new product line.
// Returns ErrProductExists if the code is already taken.
func (p *PgStore) Create(ctx context.Context, code, name string, price int64, available int32) (*Product, error) {
	rows, _ := p.db.Query(ctx,
		"INSERT INTO products ("+productColumns+") VALUES ($1, $2, $3, $4, $5) RETURNING "+productColumns,
		uuid.New(), code, name, price, available)
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, perrors.ErrProductExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// AddItems increases the number of items available for a product.
// Returns ErrProductNotFound if no product exists with the given code.
func (p *PgStore) AddItems(ctx context.Context, code string, count int32) (*Product, error) {
	rows, _ := p.db.Query(ctx,
		"UPDATE products SET available = available + $2 WHERE code = $1 RETURNING "+productColumns,
		code, count)
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to add items: %w", err)
	}
	return &product, nil
}

// Dispense takes one item of a product out of stock.
// Returns ErrProductNotFound if no product exists with the given code
// and ErrOutOfStock if no items are left.
func (p *PgStore) Dispense(ctx context.Context, code string) (*Product, error) {
	rows, _ := p.db.Query(ctx,
		"UPDATE products SET available = available - 1 WHERE code = $1 AND available > 0 RETURNING "+productColumns,
		code)
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to dispense product: %w", err)
	}
	// no row updated: either the code is unknown or the product ran out
	if _, findErr := p.FindByCode(ctx, code); findErr != nil {
		return nil, findErr
	}
	return nil, perrors.ErrOutOfStock
}
