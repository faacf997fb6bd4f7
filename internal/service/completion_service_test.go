package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/repository"
)

func newCompletionService(orders *MockOrderRepository, productCache *MockProductCache) *CompletionService {
	if productCache == nil {
		return NewCompletionService(orders, nil, testMetrics(), testLogger())
	}
	return NewCompletionService(orders, productCache, testMetrics(), testLogger())
}

func completedSession() *CompletedSession {
	return &CompletedSession{
		SessionID:   "cs_test_123",
		PaymentRef:  "pi_test_456",
		Provider:    "stripe",
		UserID:      "user-1",
		RawSnapshot: `[{"product_id":42,"quantity":2,"price":9.99}]`,
	}
}

func TestHandleSessionCompleted_Materializes(t *testing.T) {
	orders := &MockOrderRepository{}
	svc := newCompletionService(orders, nil)

	err := svc.HandleSessionCompleted(context.Background(), completedSession())
	require.NoError(t, err)

	order := orders.MaterializedOrder
	require.NotNil(t, order)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, 19.98, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(42), order.Items[0].ProductID)
	assert.Equal(t, int32(2), order.Items[0].Quantity)
	assert.Equal(t, 9.99, order.Items[0].Price)

	payment := orders.MaterializedPayment
	require.NotNil(t, payment)
	assert.Equal(t, "cs_test_123", payment.SessionID)
	assert.Equal(t, "pi_test_456", payment.PaymentRef)
	assert.Equal(t, domain.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, "stripe", payment.Provider)
}

func TestHandleSessionCompleted_DuplicateIsNoOp(t *testing.T) {
	orders := &MockOrderRepository{
		Payment: &domain.Payment{ID: 1, OrderID: uuid.New(), SessionID: "cs_test_123"},
	}
	svc := newCompletionService(orders, nil)

	// Delivered twice; neither call may materialize.
	require.NoError(t, svc.HandleSessionCompleted(context.Background(), completedSession()))
	require.NoError(t, svc.HandleSessionCompleted(context.Background(), completedSession()))

	assert.Zero(t, orders.MaterializeCalls)
}

func TestHandleSessionCompleted_ConcurrentDuplicateIsNoOp(t *testing.T) {
	// The pre-check missed, but the unique constraint caught the race.
	orders := &MockOrderRepository{MaterializeErr: repository.ErrDuplicateSession}
	svc := newCompletionService(orders, nil)

	err := svc.HandleSessionCompleted(context.Background(), completedSession())
	assert.NoError(t, err)
}

func TestHandleSessionCompleted_MalformedMetadataIsNoOp(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CompletedSession)
	}{
		{"missing user id", func(s *CompletedSession) { s.UserID = "" }},
		{"missing snapshot", func(s *CompletedSession) { s.RawSnapshot = "" }},
		{"corrupt snapshot", func(s *CompletedSession) { s.RawSnapshot = "{broken" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &MockOrderRepository{}
			svc := newCompletionService(orders, nil)

			session := completedSession()
			tc.mutate(session)

			err := svc.HandleSessionCompleted(context.Background(), session)
			assert.NoError(t, err)
			assert.Zero(t, orders.MaterializeCalls)
		})
	}
}

func TestHandleSessionCompleted_MaterializeErrorSurfaces(t *testing.T) {
	orders := &MockOrderRepository{MaterializeErr: errors.New("db down")}
	svc := newCompletionService(orders, nil)

	err := svc.HandleSessionCompleted(context.Background(), completedSession())
	assert.Error(t, err)
}

func TestHandleSessionCompleted_IdempotencyCheckErrorSurfaces(t *testing.T) {
	orders := &MockOrderRepository{PaymentErr: errors.New("db down")}
	svc := newCompletionService(orders, nil)

	err := svc.HandleSessionCompleted(context.Background(), completedSession())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check idempotency")
	assert.Zero(t, orders.MaterializeCalls)
}

func TestHandleSessionCompleted_InvalidatesProductCache(t *testing.T) {
	orders := &MockOrderRepository{}
	productCache := &MockProductCache{}
	svc := newCompletionService(orders, productCache)

	require.NoError(t, svc.HandleSessionCompleted(context.Background(), completedSession()))
	assert.Equal(t, []int64{42}, productCache.Deleted)
}

func TestHandleSessionCompleted_ConservationUnderPriceChange(t *testing.T) {
	// Total comes from the snapshot alone; the catalog is never consulted.
	orders := &MockOrderRepository{}
	svc := newCompletionService(orders, nil)

	session := completedSession()
	session.RawSnapshot = `[{"product_id":42,"quantity":3,"price":1.10},{"product_id":7,"quantity":1,"price":0.05}]`

	require.NoError(t, svc.HandleSessionCompleted(context.Background(), session))
	assert.Equal(t, 3.35, orders.MaterializedOrder.TotalAmount)
}
