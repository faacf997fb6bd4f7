package repository

import (
	"context"
	"fmt"

	"github.com/bkode/storefront/internal/domain"
)

type UserRepository interface {
	UpsertUser(ctx context.Context, id, email, name string) (*domain.User, error)
}

// UpsertUser creates the user row on first login and refreshes the profile
// fields from the identity provider afterwards.
func (r *Repository) UpsertUser(ctx context.Context, id, email, name string) (*domain.User, error) {
	query := `INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name
	          RETURNING id, email, COALESCE(name, ''), created_at`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, id, email, name).Scan(
		&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}
