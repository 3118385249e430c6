package ports

import (
	"context"

	"github.com/pdftoolpro/tracking-api/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts the user and returns it with its generated ID.
	// A unique-index violation on email is reported as domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
