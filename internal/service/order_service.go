package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/repository"
)

// OrderService is read-only: orders are materialized exclusively by the
// completion path.
type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.orders.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID string, orderID uuid.UUID) (*domain.Order, error) {
	return s.orders.GetOrderByID(ctx, userID, orderID)
}
