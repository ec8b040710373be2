package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
	roles  map[string]int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]*domain.User{}, roles: map[string]int64{}}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.nextID++
	clone := *u
	clone.ID = fmt.Sprintf("user-%d", r.nextID)
	clone.CreatedAt = time.Now()
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, ok := r.users[u.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	r.users[u.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) EnsureRole(_ context.Context, name string) (int64, error) {
	if id, ok := r.roles[name]; ok {
		return id, nil
	}
	id := int64(len(r.roles) + 1)
	r.roles[name] = id
	return id, nil
}

func (r *stubUserRepo) seed(t *testing.T, email, username, password, role, site string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := r.Create(context.Background(), &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Site:         site,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

type stubTokenRepo struct {
	tokens map[string]*domain.RefreshToken
	nextID int
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: map[string]*domain.RefreshToken{}}
}

func (r *stubTokenRepo) Create(_ context.Context, t *domain.RefreshToken) error {
	r.nextID++
	t.ID = fmt.Sprintf("token-%d", r.nextID)
	clone := *t
	r.tokens[t.ID] = &clone
	return nil
}

func (r *stubTokenRepo) FindUsableByHash(_ context.Context, hash string, now time.Time) (*domain.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == hash && t.Usable(now) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (r *stubTokenRepo) Revoke(_ context.Context, id string, at time.Time) error {
	t, ok := r.tokens[id]
	if !ok {
		return domain.ErrInvalidToken
	}
	t.RevokedAt = &at
	return nil
}

func (r *stubTokenRepo) RevokeAllForUser(_ context.Context, userID string, at time.Time) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &at
		}
	}
	return nil
}

func (r *stubTokenRepo) usableCount(userID string, now time.Time) int {
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && t.Usable(now) {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

const testJWTSecret = "unit-test-secret"

func newTestAuthService(users *stubUserRepo, tokens *stubTokenRepo) *AuthService {
	return NewAuthService(users, tokens, testJWTSecret, 15*time.Minute, 7*24*time.Hour, zerolog.Nop())
}

func TestLogin_Success(t *testing.T) {
	users := newStubUserRepo()
	seeded := users.seed(t, "admin@example.com", "Admin Bosowa", "password123", domain.RoleAdmin, domain.SiteAll)
	tokens := newStubTokenRepo()
	svc := newTestAuthService(users, tokens)

	session, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if session.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expected expiresIn 900, got %d", session.ExpiresIn)
	}
	if session.User.ID != seeded.ID || session.User.Email != seeded.Email {
		t.Errorf("session user mismatch: %+v", session.User)
	}

	parsed, err := jwt.Parse(session.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token must verify with the signing secret: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != seeded.ID || claims["role"] != domain.RoleAdmin || claims["site"] != domain.SiteAll {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_SessionNeverExposesPasswordHash(t *testing.T) {
	users := newStubUserRepo()
	users.seed(t, "admin@example.com", "Admin Bosowa", "password123", domain.RoleAdmin, domain.SiteAll)
	svc := newTestAuthService(users, newStubTokenRepo())

	session, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// SafeUser carries no hash field at all; make sure the refresh token is
	// not the stored hash either.
	if strings.Contains(session.RefreshToken, "$2a$") {
		t.Error("refresh token must not leak bcrypt material")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newStubUserRepo()
	users.seed(t, "admin@example.com", "Admin Bosowa", "password123", domain.RoleAdmin, domain.SiteAll)
	svc := newTestAuthService(users, newStubTokenRepo())

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmailIndistinguishable(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubTokenRepo())

	_, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubTokenRepo())

	if _, err := svc.Login(context.Background(), "", "password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("empty email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "admin@example.com", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("empty password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	users := newStubUserRepo()
	users.seed(t, "admin@example.com", "Admin Bosowa", "password123", domain.RoleAdmin, domain.SiteAll)
	tokens := newStubTokenRepo()
	svc := newTestAuthService(users, tokens)

	first, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("rotation must issue a different refresh token")
	}

	// The presented token was revoked by the rotation.
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("replayed token: expected ErrInvalidToken, got %v", err)
	}

	// The newly issued token still works.
	if _, err := svc.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("fresh token: unexpected error %v", err)
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubTokenRepo())

	_, err := svc.Refresh(context.Background(), "deadbeef")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	users := newStubUserRepo()
	users.seed(t, "admin@example.com", "Admin Bosowa", "password123", domain.RoleAdmin, domain.SiteAll)
	tokens := newStubTokenRepo()
	svc := newTestAuthService(users, tokens)

	session, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Jump past the refresh TTL.
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := svc.Refresh(context.Background(), session.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expired token: expected ErrInvalidToken, got %v", err)
	}
}

func TestLogout_RevokesAllSessions(t *testing.T) {
	users := newStubUserRepo()
	seeded := users.seed(t, "admin@example.com", "Admin Bosowa", "password123", domain.RoleAdmin, domain.SiteAll)
	tokens := newStubTokenRepo()
	svc := newTestAuthService(users, tokens)

	first, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := svc.Login(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), seeded.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if n := tokens.usableCount(seeded.ID, time.Now()); n != 0 {
		t.Errorf("expected 0 usable tokens after logout, got %d", n)
	}
	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := svc.Refresh(context.Background(), tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("post-logout refresh: expected ErrInvalidToken, got %v", err)
		}
	}
}

func TestProfile(t *testing.T) {
	users := newStubUserRepo()
	seeded := users.seed(t, "op@example.com", "Operasional Lapangan", "password123", domain.RoleOperasional, domain.SiteGenset)
	svc := newTestAuthService(users, newStubTokenRepo())

	profile, err := svc.Profile(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Email != "op@example.com" || profile.Role != domain.RoleOperasional || profile.Site != domain.SiteGenset {
		t.Errorf("unexpected profile: %+v", profile)
	}

	if _, err := svc.Profile(context.Background(), "user-missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("missing user: expected ErrUserNotFound, got %v", err)
	}
}
