package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bkode/storefront/internal/cache"
	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/gateway"
	"github.com/bkode/storefront/internal/metrics"
	"github.com/bkode/storefront/internal/repository"
)

func testMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockCartRepository implements repository.CartRepository
type MockCartRepository struct {
	Lines   []domain.CartLine
	Details []domain.CartLineDetail
	Err     error
}

func (m *MockCartRepository) ListCartLines(_ context.Context, _ string) ([]domain.CartLine, error) {
	return m.Lines, m.Err
}

func (m *MockCartRepository) ListCartLineDetails(_ context.Context, _ string) ([]domain.CartLineDetail, error) {
	return m.Details, m.Err
}

func (m *MockCartRepository) AddCartLine(_ context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.CartLine{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (m *MockCartRepository) UpdateCartLineQuantity(_ context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.CartLine{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (m *MockCartRepository) RemoveCartLine(_ context.Context, _ string, _ int64) error {
	return m.Err
}

// MockProductRepository implements repository.ProductRepository
type MockProductRepository struct {
	Products map[int64]*domain.Product
	Err      error
}

func (m *MockProductRepository) ListProducts(_ context.Context) ([]domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Product
	for _, p := range m.Products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *MockProductRepository) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	if m.Err != nil {
		return m.Err
	}
	p.ID = int64(len(m.Products) + 1)
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductRepository) UpdateProduct(_ context.Context, id int64, _ *domain.ProductUpdate) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *MockProductRepository) DeleteProduct(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

// MockOrderRepository implements repository.OrderRepository
type MockOrderRepository struct {
	Payment        *domain.Payment
	PaymentErr     error
	MaterializeErr error
	Orders         []*domain.Order
	Order          *domain.Order
	Err            error

	// Captured by MaterializeOrder
	MaterializedOrder   *domain.Order
	MaterializedPayment *domain.Payment
	MaterializeCalls    int
}

func (m *MockOrderRepository) MaterializeOrder(_ context.Context, order *domain.Order, payment *domain.Payment) error {
	m.MaterializeCalls++
	if m.MaterializeErr != nil {
		return m.MaterializeErr
	}
	m.MaterializedOrder = order
	m.MaterializedPayment = payment
	payment.OrderID = order.ID
	return nil
}

func (m *MockOrderRepository) GetPaymentBySessionID(_ context.Context, _ string) (*domain.Payment, error) {
	if m.PaymentErr != nil {
		return nil, m.PaymentErr
	}
	if m.Payment == nil {
		return nil, repository.ErrPaymentNotFound
	}
	return m.Payment, nil
}

func (m *MockOrderRepository) ListOrdersByUserID(_ context.Context, _ string) ([]*domain.Order, error) {
	return m.Orders, m.Err
}

func (m *MockOrderRepository) GetOrderByID(_ context.Context, userID string, _ uuid.UUID) (*domain.Order, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Order == nil || m.Order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return m.Order, nil
}

// MockGateway implements gateway.PaymentGateway
type MockGateway struct {
	Session *gateway.Session
	Err     error

	CapturedRequest *gateway.SessionRequest
}

func (m *MockGateway) CreateCheckoutSession(_ context.Context, req *gateway.SessionRequest) (*gateway.Session, error) {
	m.CapturedRequest = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Session, nil
}

// MockProductCache implements cache.ProductCache
type MockProductCache struct {
	Products map[int64]*domain.Product
	GetErr   error
	SetErr   error

	Deleted []int64
	Sets    []int64
}

func (m *MockProductCache) Get(_ context.Context, productID int64) (*domain.Product, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Products[productID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return p, nil
}

func (m *MockProductCache) Set(_ context.Context, product *domain.Product) error {
	m.Sets = append(m.Sets, product.ID)
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Products != nil {
		m.Products[product.ID] = product
	}
	return nil
}

func (m *MockProductCache) Delete(_ context.Context, productID int64) error {
	m.Deleted = append(m.Deleted, productID)
	return nil
}
