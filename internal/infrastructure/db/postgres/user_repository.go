package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

const (
	createUser = `INSERT INTO users (id, username, email, password_hash, role_id, site)
    VALUES ($1, $2, $3, $4, (SELECT id FROM roles WHERE name = $5), $6)
    RETURNING created_at;`

	updateUser = `UPDATE users
    SET username = $2, email = $3, password_hash = $4,
        role_id = (SELECT id FROM roles WHERE name = $5), site = $6
    WHERE id = $1
    RETURNING created_at;`

	deleteUser = `DELETE FROM users WHERE id = $1;`

	selectUser = `SELECT u.id, u.username, u.email, u.password_hash, r.name, u.site, u.created_at
    FROM users u
    JOIN roles r ON r.id = u.role_id`

	findUserByID       = selectUser + ` WHERE u.id = $1;`
	findUserByEmail    = selectUser + ` WHERE lower(u.email) = lower($1);`
	findUserByUsername = selectUser + ` WHERE lower(u.username) = lower($1);`
	listUsers          = selectUser + ` ORDER BY u.created_at, u.id;`

	ensureRole = `INSERT INTO roles (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id;`
)

// UserRepository is the PostgreSQL-backed implementation of
// ports.UserRepository. Email and username uniqueness is enforced by
// case-insensitive unique indexes; their violations map to the domain
// conflict errors.
type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	created.ID = uuid.NewString()

	row := r.db.QueryRowContext(ctx, createUser,
		created.ID, created.Username, created.Email, created.PasswordHash, created.Role, created.Site)
	if err := row.Scan(&created.CreatedAt); err != nil {
		return nil, r.mapWriteError(err, "create user")
	}
	return &created, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	updated := *user
	row := r.db.QueryRowContext(ctx, updateUser,
		updated.ID, updated.Username, updated.Email, updated.PasswordHash, updated.Role, updated.Site)
	if err := row.Scan(&updated.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, r.mapWriteError(err, "update user")
	}
	return &updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, findUserByID, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, findUserByEmail, email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, findUserByUsername, username)
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) EnsureRole(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, ensureRole, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure role %q: %w", name, err)
	}
	return id, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// mapWriteError translates unique-index violations into the domain conflict
// errors, keyed by the violated constraint.
func (r *UserRepository) mapWriteError(err error, op string) error {
	if pgErrCode(err) == pgerrcode.UniqueViolation {
		constraint := pgConstraint(err)
		switch {
		case strings.Contains(constraint, "email"):
			return domain.ErrEmailTaken
		case strings.Contains(constraint, "username"):
			return domain.ErrUsernameTaken
		}
	}
	r.logger.Error().Err(err).Msg(op + " failed")
	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Site, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
