package ports

import (
	"context"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

// UserRepository defines persistence operations for the identity store.
// Lookups by email and username are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// EnsureRole creates the named role if absent and returns its id.
	// Used by startup seeding only.
	EnsureRole(ctx context.Context, name string) (int64, error)
}
