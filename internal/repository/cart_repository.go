package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bkode/storefront/internal/domain"
)

type CartRepository interface {
	ListCartLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	ListCartLineDetails(ctx context.Context, userID string) ([]domain.CartLineDetail, error)
	AddCartLine(ctx context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error)
	UpdateCartLineQuantity(ctx context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error)
	RemoveCartLine(ctx context.Context, userID string, productID int64) error
}

func (r *Repository) ListCartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	query := `SELECT id, user_id, product_id, quantity
	          FROM cart_lines WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (r *Repository) ListCartLineDetails(ctx context.Context, userID string) ([]domain.CartLineDetail, error) {
	query := `SELECT cl.id, cl.product_id, cl.quantity, p.name, p.price, COALESCE(p.image_url, '')
	          FROM cart_lines cl
	          JOIN products p ON p.id = cl.product_id
	          WHERE cl.user_id = $1
	          ORDER BY cl.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart line details: %w", err)
	}
	defer rows.Close()

	var details []domain.CartLineDetail
	for rows.Next() {
		var d domain.CartLineDetail
		if err := rows.Scan(&d.ID, &d.ProductID, &d.Quantity, &d.ProductName, &d.ProductPrice, &d.ProductImage); err != nil {
			return nil, fmt.Errorf("scan cart line detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return details, nil
}

// AddCartLine inserts a line or, when the (user, product) pair already
// exists, increases its quantity.
func (r *Repository) AddCartLine(ctx context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	query := `INSERT INTO cart_lines (user_id, product_id, quantity) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
	          RETURNING id, user_id, product_id, quantity`

	var line domain.CartLine
	err := r.db.QueryRowContext(ctx, query, userID, productID, quantity).
		Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity)
	if err != nil {
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}
	return &line, nil
}

func (r *Repository) UpdateCartLineQuantity(ctx context.Context, userID string, productID int64, quantity int32) (*domain.CartLine, error) {
	query := `UPDATE cart_lines SET quantity = $3
	          WHERE user_id = $1 AND product_id = $2
	          RETURNING id, user_id, product_id, quantity`

	var line domain.CartLine
	err := r.db.QueryRowContext(ctx, query, userID, productID, quantity).
		Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	return &line, nil
}

func (r *Repository) RemoveCartLine(ctx context.Context, userID string, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart line rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartLineNotFound
	}
	return nil
}
