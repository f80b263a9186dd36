// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"

	"github.com/abgdnv/vending/internal/product/store"
)

// ProductService defines the methods for managing the machine's product lines.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindByCode retrieves a single product by its slot code.
	// Returns ErrProductNotFound if no product exists with the given code.
	FindByCode(ctx context.Context, code string) (*ProductDto, error)

	// FindAll returns all product lines, ordered by code.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindAvailable returns the product lines that have at least one item left.
	FindAvailable(ctx context.Context) ([]ProductDto, error)

	// Create adds a new product line.
	// Returns ErrProductExists if the code is already taken.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// AddItems reloads a product line with more items.
	// Returns ErrProductNotFound if no product exists with the given code.
	AddItems(ctx context.Context, code string, count int32) (*ProductDto, error)

	// Dispense takes one item out of a product line.
	// Returns ErrProductNotFound or ErrOutOfStock.
	Dispense(ctx context.Context, code string) (*ProductDto, error)
}

// Service implements ProductService on top of a ProductStore.
type Service struct {
	repository store.ProductStore
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore) *Service {
	return &Service{
		repository: repo,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product line.
type ProductCreateDto struct {
	Code      string `json:"code"      validate:"required,max=16"`
	Name      string `json:"name"      validate:"required,max=100"`
	Price     int64  `json:"price"     validate:"required,gt=0"`
	Available int32  `json:"available" validate:"min=0"`
}

// ProductDto represents the data transfer object for a product line.
type ProductDto struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available int32  `json:"available"`
}

// ItemsAddDto represents the data transfer object for reloading a product line.
type ItemsAddDto struct {
	Count int32 `json:"count" validate:"required,gt=0"`
}

// FindByCode retrieves a product by its code and returns it as a ProductDto.
func (s *Service) FindByCode(ctx context.Context, code string) (*ProductDto, error) {
	product, err := s.repository.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", code, err)
	}
	return toDto(product), nil
}

// FindAll retrieves all product lines and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	return productDTOs, nil
}

// FindAvailable retrieves the product lines with items left.
func (s *Service) FindAvailable(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, 0, len(products))
	for _, item := range products {
		if item.Available > 0 {
			productDTOs = append(productDTOs, *toDto(&item))
		}
	}
	return productDTOs, nil
}

// Create creates a new product line and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.repository.Create(ctx, product.Code, product.Name, product.Price, product.Available)
	if err != nil {
		return nil, fmt.Errorf("failed to create product %s: %w", product.Code, err)
	}
	return toDto(p), nil
}

// AddItems reloads a product line and returns the updated product.
func (s *Service) AddItems(ctx context.Context, code string, count int32) (*ProductDto, error) {
	p, err := s.repository.AddItems(ctx, code, count)
	if err != nil {
		return nil, fmt.Errorf("failed to add items to product %s: %w", code, err)
	}
	return toDto(p), nil
}

// Dispense takes one item out of a product line and returns the updated product.
func (s *Service) Dispense(ctx context.Context, code string) (*ProductDto, error) {
	p, err := s.repository.Dispense(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to dispense product %s: %w", code, err)
	}
	return toDto(p), nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID.String(),
		Code:      product.Code,
		Name:      product.Name,
		Price:     product.Price,
		Available: product.Available,
	}
}
