package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// AuthService implements login, refresh-token rotation, logout and profile
// lookup against the identity store.
type AuthService struct {
	users      ports.UserRepository
	tokens     ports.RefreshTokenRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewAuthService(users ports.UserRepository, tokens ports.RefreshTokenRepository, jwtSecret string, accessTTL, refreshTTL time.Duration, logger zerolog.Logger) *AuthService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Login validates the credentials and issues a fresh access/refresh pair.
// Absent user and digest mismatch are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthSession, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return session, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued, so a replayed token fails on its second use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthSession, error) {
	if refreshToken == "" {
		return nil, domain.ErrInvalidToken
	}

	now := s.now()
	record, err := s.tokens.FindUsableByHash(ctx, hashToken(refreshToken), now)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	if err := s.tokens.Revoke(ctx, record.ID, now); err != nil {
		return nil, fmt.Errorf("revoke rotated token: %w", err)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("refresh token rotated")
	return session, nil
}

// Logout revokes every outstanding refresh token for the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID, s.now())
}

// Profile returns the sanitized profile for userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*ports.SafeUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	safe := sanitizeUser(user)
	return &safe, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*ports.AuthSession, error) {
	access, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshPlain, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	record := &domain.RefreshToken{
		TokenHash: hashToken(refreshPlain),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
		UserID:    user.ID,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &ports.AuthSession{
		AccessToken:  access,
		RefreshToken: refreshPlain,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         sanitizeUser(user),
	}, nil
}

func (s *AuthService) signAccessToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"site":     user.Site,
		"exp":      s.now().Add(s.accessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func sanitizeUser(u *domain.User) ports.SafeUser {
	return ports.SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Site:      u.Site,
		CreatedAt: u.CreatedAt,
	}
}

// newRefreshToken returns a 256-bit random token, hex encoded.
func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
