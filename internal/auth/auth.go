package auth

import (
	"context"
	"errors"
)

// Identity is what the identity provider asserts about a bearer credential.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Verifier is the opaque verification oracle: token in, identity out.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

var (
	ErrMissingToken = errors.New("authorization header is missing")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type contextKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// AdminSet is the configuration-supplied allowlist of privileged identities.
// Admin is a capability of the deployment, not a role in the data model.
type AdminSet map[string]struct{}

func NewAdminSet(uids []string) AdminSet {
	set := make(AdminSet, len(uids))
	for _, uid := range uids {
		set[uid] = struct{}{}
	}
	return set
}

func (s AdminSet) Contains(uid string) bool {
	_, ok := s[uid]
	return ok
}
