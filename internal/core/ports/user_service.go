package ports

import "context"

// CreateUserInput carries the data for administrative user provisioning.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Site     string
}

// UpdateUserInput carries a partial user update. Nil fields are left
// unchanged; the role/site invariant is re-checked against the merged state.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *string
	Site     *string
}

// UserService implements identity management and startup seeding.
type UserService interface {
	List(ctx context.Context) ([]SafeUser, error)
	Get(ctx context.Context, id string) (*SafeUser, error)
	Create(ctx context.Context, input CreateUserInput) (*SafeUser, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*SafeUser, error)
	Delete(ctx context.Context, id string) error
	// Seed provisions default roles and accounts. Best-effort: failures are
	// logged and must never prevent the service from starting.
	Seed(ctx context.Context)
}
