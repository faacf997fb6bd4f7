package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bkode/storefront/internal/auth"
	"github.com/bkode/storefront/internal/service"
)

type UsersHandler struct {
	users   *service.UserService
	timeout time.Duration
}

func NewUsersHandler(users *service.UserService, timeout time.Duration) *UsersHandler {
	return &UsersHandler{users: users, timeout: timeout}
}

// POST /api/v1/users/me
func (h *UsersHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	user, err := h.users.GetOrCreate(ctx, identity)
	if errors.Is(err, service.ErrIncompleteIdentity) {
		respondError(w, http.StatusBadRequest, "incomplete_identity", "token is missing uid or email")
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
