package cache

import (
	"context"
	"errors"

	"github.com/bkode/storefront/internal/domain"
)

// ProductCache fronts catalog reads on the public endpoints. Checkout never
// goes through it: stock validation must see the live row.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
