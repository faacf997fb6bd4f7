package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkode/storefront/internal/domain"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}, mock
}

func sampleOrder() (*domain.Order, *domain.Payment) {
	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      "user-1",
		TotalAmount: 44.97,
		Status:      domain.OrderStatusPaid,
		Items: []domain.OrderItem{
			{ProductID: 42, Quantity: 2, Price: 9.99},
			{ProductID: 7, Quantity: 1, Price: 24.99},
		},
	}
	payment := &domain.Payment{
		PaymentRef: "pi_123",
		SessionID:  "cs_test_abc",
		Status:     domain.PaymentStatusSuccess,
		Provider:   "stripe",
	}
	return order, payment
}

func TestMaterializeOrder_CommitsEverything(t *testing.T) {
	repo, mock := newMockRepository(t)
	order, payment := sampleOrder()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(order.ID, "user-1", 44.97, string(domain.OrderStatusPaid)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WithArgs(order.ID, int64(42), int32(2), 9.99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WithArgs(order.ID, int64(7), int32(1), 24.99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(order.ID, "pi_123", "cs_test_abc", string(domain.PaymentStatusSuccess), "stripe").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(`UPDATE products SET stock = GREATEST`).
		WithArgs(int64(42), int32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE products SET stock = GREATEST`).
		WithArgs(int64(7), int32(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM cart_lines`).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs(sqlmock.AnyArg(), "order.created", order.ID.String(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.MaterializeOrder(context.Background(), order, payment)
	require.NoError(t, err)

	assert.Equal(t, now, order.CreatedAt)
	assert.Equal(t, int64(100), order.Items[0].ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
	assert.Equal(t, int64(9), payment.ID)
	assert.Equal(t, order.ID, payment.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializeOrder_DuplicateSessionRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)
	order, payment := sampleOrder()
	order.Items = order.Items[:1]

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_session_id_key"})
	mock.ExpectRollback()

	err := repo.MaterializeOrder(context.Background(), order, payment)
	assert.ErrorIs(t, err, ErrDuplicateSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializeOrder_StockUpdateFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)
	order, payment := sampleOrder()
	order.Items = order.Items[:1]

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(`UPDATE products SET stock = GREATEST`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.MaterializeOrder(context.Background(), order, payment)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateSession)
	assert.Contains(t, err.Error(), "decrement stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentBySessionID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE session_id`).
		WithArgs("cs_test_abc").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "order_id", "payment_ref", "session_id", "status", "provider"}).
			AddRow(int64(9), uuid.New().String(), "pi_123", "cs_test_abc", "success", "stripe"))

	p, err := repo.GetPaymentBySessionID(context.Background(), "cs_test_abc")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", p.SessionID)
	assert.Equal(t, domain.PaymentStatusSuccess, p.Status)
}

func TestGetPaymentBySessionID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM payments WHERE session_id`).
		WithArgs("cs_unknown").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "order_id", "payment_ref", "session_id", "status", "provider"}))

	_, err := repo.GetPaymentBySessionID(context.Background(), "cs_unknown")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestGetOrderByID_WrongUserLooksMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	orderID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM orders WHERE id = \$1 AND user_id = \$2`).
		WithArgs(orderID, "intruder").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "total_amount", "status", "created_at"}))

	_, err := repo.GetOrderByID(context.Background(), "intruder", orderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByUserID_AttachesItems(t *testing.T) {
	repo, mock := newMockRepository(t)
	orderID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM orders WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "total_amount", "status", "created_at"}).
			AddRow(orderID.String(), "user-1", 19.98, "paid", time.Now()))
	mock.ExpectQuery(`SELECT .+ FROM order_items WHERE order_id = ANY`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow(int64(100), orderID.String(), int64(42), int32(2), 9.99))

	orders, err := repo.ListOrdersByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(42), orders[0].Items[0].ProductID)
}

func TestListOrdersByUserID_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM orders WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "total_amount", "status", "created_at"}))

	orders, err := repo.ListOrdersByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}
