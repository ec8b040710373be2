package ports

import (
	"context"
	"time"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

// RefreshTokenRepository persists hashed refresh tokens. Records are never
// deleted through this interface; revocation is a timestamp update and
// expired rows are left for an external retention job.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	// FindUsableByHash returns the token matching hash that is neither
	// revoked nor expired at now, or domain.ErrInvalidToken.
	FindUsableByHash(ctx context.Context, hash string, now time.Time) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
}
