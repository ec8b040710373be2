package domain

import "time"

// RefreshToken is the persisted record of an issued refresh token. Only the
// SHA-256 hash of the token is stored; the plaintext is returned to the
// client once and never kept.
type RefreshToken struct {
	ID        string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
	UserID    string
}

// Usable reports whether the token may still be exchanged: not revoked and
// not past its expiry. Both revoked and expired are terminal states.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
