package service

import (
	"context"
	"fmt"

	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/repository"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) GetCart(ctx context.Context, userID string) ([]domain.CartLineDetail, error) {
	details, err := s.carts.ListCartLineDetails(ctx, userID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		details = []domain.CartLineDetail{}
	}
	return details, nil
}

func (s *CartService) AddToCart(ctx context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("product %d: %w", productID, err)
	}
	return s.carts.AddCartLine(ctx, userID, productID, quantity)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	return s.carts.UpdateCartLineQuantity(ctx, userID, productID, quantity)
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID string, productID int64) error {
	return s.carts.RemoveCartLine(ctx, userID, productID)
}
