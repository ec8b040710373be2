package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

const (
	createRefreshToken = `INSERT INTO refresh_tokens (id, token_hash, expires_at, created_at, user_id)
    VALUES ($1, $2, $3, $4, $5);`

	findUsableRefreshToken = `SELECT id, token_hash, expires_at, revoked_at, created_at, user_id
    FROM refresh_tokens
    WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2;`

	revokeRefreshToken = `UPDATE refresh_tokens SET revoked_at = $2
    WHERE id = $1 AND revoked_at IS NULL;`

	revokeAllRefreshTokens = `UPDATE refresh_tokens SET revoked_at = $2
    WHERE user_id = $1 AND revoked_at IS NULL;`
)

// RefreshTokenRepository is the PostgreSQL-backed implementation of
// ports.RefreshTokenRepository. Only token digests are stored; revocation is
// a timestamp update so rotation history stays auditable.
type RefreshTokenRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRefreshTokenRepository(db *sql.DB, logger zerolog.Logger) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, logger: logger}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	token.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, createRefreshToken,
		token.ID, token.TokenHash, token.ExpiresAt, token.CreatedAt, token.UserID)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindUsableByHash(ctx context.Context, hash string, now time.Time) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	row := r.db.QueryRowContext(ctx, findUsableRefreshToken, hash, now)
	if err := row.Scan(&t.ID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt, &t.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, revokeRefreshToken, id, at)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if affected == 0 {
		return domain.ErrInvalidToken
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, revokeAllRefreshTokens, userID, at); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

var _ ports.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
