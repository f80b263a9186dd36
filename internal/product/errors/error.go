// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrProductExists = errors.New("product with this code already exists")
var ErrOutOfStock = errors.New("product is out of stock")
