package ports

import (
	"context"

	"github.com/pdftoolpro/tracking-api/internal/core/domain"
)

// AuthResult is what register and login hand back to the transport layer.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// Identifier recovers a user ID from a bearer token. It never fails the
// caller: ok is false for any token that does not verify.
type Identifier interface {
	Identify(token string) (userID string, ok bool)
}
