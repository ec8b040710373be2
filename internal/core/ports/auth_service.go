package ports

import (
	"context"
	"time"
)

// SafeUser is the sanitized user projection returned to clients. It never
// carries the credential digest.
type SafeUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Site      string    `json:"site"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthSession is the result of a successful login or refresh.
type AuthSession struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"` // access token lifetime in seconds
	User         SafeUser `json:"user"`
}

// AuthService implements the credential & token service: login, refresh
// rotation, logout and profile lookup.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthSession, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthSession, error)
	Logout(ctx context.Context, userID string) error
	Profile(ctx context.Context, userID string) (*SafeUser, error)
}
