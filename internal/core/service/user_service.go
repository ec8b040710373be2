package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// Default accounts provisioned by Seed. Passwords are expected to be rotated
// immediately after first login.
const (
	seedAdminEmail    = "admin@example.com"
	seedAdminUsername = "Admin Bosowa"
	seedOpEmail       = "op@example.com"
	seedOpUsername    = "Operasional Lapangan"
	seedPassword      = "password123"
)

// UserService implements administrative identity management. Password
// hashing happens explicitly here at each call site, never inside the
// persistence layer, so the side effect stays visible and testable.
type UserService struct {
	users  ports.UserRepository
	seed   bool
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, seedDefaults bool, logger zerolog.Logger) *UserService {
	return &UserService{users: users, seed: seedDefaults, logger: logger}
}

func (s *UserService) List(ctx context.Context) ([]ports.SafeUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ports.SafeUser, len(users))
	for i, u := range users {
		out[i] = sanitizeUser(u)
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*ports.SafeUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	safe := sanitizeUser(user)
	return &safe, nil
}

func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput) (*ports.SafeUser, error) {
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrRoleNotFound
	}

	site := input.Site
	if site == "" {
		site = domain.SiteAll
	}
	if !domain.ValidSiteScope(site) {
		return nil, domain.ErrInvalidCategory
	}
	if err := domain.CheckSiteInvariant(input.Role, site); err != nil {
		return nil, err
	}

	// Fast-path duplicate checks; the unique indexes in the store remain
	// the authoritative guard under concurrent creation.
	if err := s.ensureUniqueEmail(ctx, input.Email); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueUsername(ctx, input.Username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		Site:         site,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Str("site", created.Site).Msg("user created")
	safe := sanitizeUser(created)
	return &safe, nil
}

func (s *UserService) Update(ctx context.Context, id string, input ports.UpdateUserInput) (*ports.SafeUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && !strings.EqualFold(*input.Email, user.Email) {
		if err := s.ensureUniqueEmail(ctx, *input.Email); err != nil {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.Username != nil && !strings.EqualFold(*input.Username, user.Username) {
		if err := s.ensureUniqueUsername(ctx, *input.Username); err != nil {
			return nil, err
		}
		user.Username = *input.Username
	}
	if input.Role != nil {
		if !domain.ValidRole(*input.Role) {
			return nil, domain.ErrRoleNotFound
		}
		user.Role = *input.Role
	}
	if input.Site != nil {
		if !domain.ValidSiteScope(*input.Site) {
			return nil, domain.ErrInvalidCategory
		}
		user.Site = *input.Site
	}

	// The invariant holds on every update, not just create.
	if err := domain.CheckSiteInvariant(user.Role, user.Site); err != nil {
		return nil, err
	}

	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	safe := sanitizeUser(updated)
	return &safe, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// Seed provisions the default roles and accounts when enabled. Every failure
// is logged and swallowed: partial seeding must never prevent startup.
func (s *UserService) Seed(ctx context.Context) {
	if !s.seed {
		s.logger.Info().Msg("default data seeding disabled")
		return
	}

	for _, role := range []string{domain.RoleAdmin, domain.RoleOperasional} {
		if _, err := s.users.EnsureRole(ctx, role); err != nil {
			s.logger.Error().Err(err).Str("role", role).Msg("failed to seed role")
			return
		}
	}

	s.seedUser(ctx, ports.CreateUserInput{
		Username: seedAdminUsername,
		Email:    seedAdminEmail,
		Password: seedPassword,
		Role:     domain.RoleAdmin,
		Site:     domain.SiteAll,
	})
	s.seedUser(ctx, ports.CreateUserInput{
		Username: seedOpUsername,
		Email:    seedOpEmail,
		Password: seedPassword,
		Role:     domain.RoleOperasional,
		Site:     domain.SiteGenset,
	})
}

func (s *UserService) seedUser(ctx context.Context, input ports.CreateUserInput) {
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return // already present, seeding is idempotent
	}
	if _, err := s.Create(ctx, input); err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to seed default user")
		return
	}
	s.logger.Info().Str("email", input.Email).Str("role", input.Role).Msg("default user seeded")
}

func (s *UserService) ensureUniqueEmail(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	}
	return nil
}

func (s *UserService) ensureUniqueUsername(ctx context.Context, username string) error {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return domain.ErrUsernameTaken
	}
	return nil
}
