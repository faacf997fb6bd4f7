package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkode/storefront/internal/auth"
	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/service"
)

type stubCartRepository struct {
	details []domain.CartLineDetail
	err     error
}

func (s *stubCartRepository) ListCartLines(_ context.Context, _ string) ([]domain.CartLine, error) {
	return nil, s.err
}

func (s *stubCartRepository) ListCartLineDetails(_ context.Context, _ string) ([]domain.CartLineDetail, error) {
	return s.details, s.err
}

func (s *stubCartRepository) AddCartLine(_ context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CartLine{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (s *stubCartRepository) UpdateCartLineQuantity(_ context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CartLine{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (s *stubCartRepository) RemoveCartLine(_ context.Context, _ string, _ int64) error {
	return s.err
}

func newCartHandler(carts *stubCartRepository, products *stubProductRepository) *CartHandler {
	return NewCartHandler(service.NewCartService(carts, products), time.Second)
}

func authedPost(target, uid, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid}))
}

func TestAddItem_QuantityBounds(t *testing.T) {
	h := newCartHandler(&stubCartRepository{}, &stubProductRepository{})

	for _, body := range []string{
		`{"product_id": 42, "quantity": 0}`,
		`{"product_id": 42, "quantity": -1}`,
		`{"product_id": 42, "quantity": 100}`,
	} {
		req := authedPost("/api/v1/cart/items", "user-1", body)
		rec := httptest.NewRecorder()
		h.AddItem(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		assert.Contains(t, rec.Body.String(), "invalid_quantity", "body %s", body)
	}
}

func TestAddItem_UnknownProductIs404(t *testing.T) {
	h := newCartHandler(&stubCartRepository{}, &stubProductRepository{products: map[int64]*domain.Product{}})

	req := authedPost("/api/v1/cart/items", "user-1", `{"product_id": 99, "quantity": 1}`)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_not_found")
}

func TestAddItem_Success(t *testing.T) {
	products := &stubProductRepository{products: map[int64]*domain.Product{
		42: {ID: 42, Name: "Walnut Desk", Price: 9.99, Stock: 5},
	}}
	h := newCartHandler(&stubCartRepository{}, products)

	req := authedPost("/api/v1/cart/items", "user-1", `{"product_id": 42, "quantity": 2}`)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product_id":42`)
	assert.Contains(t, rec.Body.String(), `"quantity":2`)
}

func TestGetCart_Unauthenticated(t *testing.T) {
	h := newCartHandler(&stubCartRepository{}, &stubProductRepository{})

	rec := httptest.NewRecorder()
	h.GetCart(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_EmptyIsArrayNotNull(t *testing.T) {
	h := newCartHandler(&stubCartRepository{}, &stubProductRepository{})

	rec := httptest.NewRecorder()
	h.GetCart(rec, authedRequest(http.MethodGet, "/api/v1/cart", "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
