package service

import (
	"context"
	"errors"

	"github.com/bkode/storefront/internal/auth"
	"github.com/bkode/storefront/internal/domain"
	"github.com/bkode/storefront/internal/repository"
)

var ErrIncompleteIdentity = errors.New("identity is missing uid or email")

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetOrCreate mirrors the identity provider's view of the user into the local
// users table, creating the row on first login.
func (s *UserService) GetOrCreate(ctx context.Context, identity *auth.Identity) (*domain.User, error) {
	if identity == nil || identity.UID == "" || identity.Email == "" {
		return nil, ErrIncompleteIdentity
	}
	return s.users.UpsertUser(ctx, identity.UID, identity.Email, identity.Name)
}
