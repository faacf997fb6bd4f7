package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bkode/storefront/internal/domain"
)

type OrderRepository interface {
	MaterializeOrder(ctx context.Context, order *domain.Order, payment *domain.Payment) error
	GetPaymentBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, userID string, orderID uuid.UUID) (*domain.Order, error)
}

// MaterializeOrder durably creates everything a completed purchase implies in
// one transaction: the order header, its items, the payment row, clamped
// stock decrements, the cart clear, and the outbox event. Either all of it
// persists or none of it does.
//
// The unique constraint on payments.session_id is the concurrency primitive:
// a concurrent duplicate delivery fails the insert, the whole transaction
// rolls back, and the caller sees ErrDuplicateSession.
func (r *Repository) MaterializeOrder(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin materialize tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING created_at`,
		order.ID, order.UserID, order.TotalAmount, order.Status,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	payment.OrderID = order.ID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO payments (order_id, payment_ref, session_id, status, provider)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		payment.OrderID, payment.PaymentRef, payment.SessionID, payment.Status, payment.Provider,
	).Scan(&payment.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	// Clamped at zero, and products deleted since the snapshot simply match
	// no row. Single UPDATE keeps the read-modify-write atomic under
	// concurrent completions for overlapping products.
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = GREATEST(stock - $2, 0) WHERE id = $1`,
			item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for product %d: %w", item.ProductID, err)
		}
	}

	// The whole cart goes stale after a completed purchase, not just the
	// purchased lines.
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1`, order.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order event payload: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, aggregate_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(), "order.created", order.ID.String(), payload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit materialize tx: %w", err)
	}
	return nil
}

func (r *Repository) GetPaymentBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	query := `SELECT id, order_id, COALESCE(payment_ref, ''), session_id, status, provider
	          FROM payments WHERE session_id = $1`

	var p domain.Payment
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&p.ID, &p.OrderID, &p.PaymentRef, &p.SessionID, &p.Status, &p.Provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by session id: %w", err)
	}

	return &p, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, created_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	byID := make(map[uuid.UUID]*domain.Order)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Items = []domain.OrderItem{}
		orders = append(orders, &order)
		byID[order.ID] = &order
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	itemsQuery := `SELECT id, order_id, product_id, quantity, price
	               FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	itemRows, err := r.db.QueryContext(ctx, itemsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// GetOrderByID is scoped to the owning user: an order belonging to someone
// else looks exactly like a missing one.
func (r *Repository) GetOrderByID(ctx context.Context, userID string, orderID uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, created_at
	          FROM orders WHERE id = $1 AND user_id = $2`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, orderID, userID).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	itemsQuery := `SELECT id, order_id, product_id, quantity, price
	               FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &order, nil
}
