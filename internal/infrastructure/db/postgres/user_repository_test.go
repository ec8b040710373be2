package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

func newTestUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "create sqlmock")
	return NewUserRepository(db, zerolog.Nop()), mock, db
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraint}
}

func TestUserCreate_Success(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Admin Bosowa", "admin@example.com", "hashed", domain.RoleAdmin, domain.SiteAll).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	created, err := repo.Create(context.Background(), &domain.User{
		Username:     "Admin Bosowa",
		Email:        "admin@example.com",
		PasswordHash: "hashed",
		Role:         domain.RoleAdmin,
		Site:         domain.SiteAll,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(uniqueViolation("users_email_lower_idx"))

	_, err := repo.Create(context.Background(), &domain.User{Email: "admin@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(uniqueViolation("users_username_lower_idx"))

	_, err := repo.Create(context.Background(), &domain.User{Username: "Admin Bosowa"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestUserFindByEmail(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "name", "site", "created_at"}).
		AddRow("user-1", "Admin Bosowa", "admin@example.com", "hashed", domain.RoleAdmin, domain.SiteAll, now)

	mock.ExpectQuery("JOIN roles").
		WithArgs("ADMIN@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestUserFindByID_NotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("JOIN roles").
		WithArgs("user-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "user-missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserUpdate_NotFound(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE users").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &domain.User{ID: "user-missing"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserDelete(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1"))

	mock.ExpectExec("DELETE FROM users").
		WithArgs("user-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "user-missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestEnsureRole(t *testing.T) {
	repo, mock, db := newTestUserRepo(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO roles").
		WithArgs(domain.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, err := repo.EnsureRole(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}
