package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

const (
	insertTransaction = `INSERT INTO transactions (id, timestamp, type, amount, description, category, user_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7);`

	// Serializes OUT postings per category for the duration of the enclosing
	// transaction. hashtext keys the advisory lock space by category name.
	lockCategory = `SELECT pg_advisory_xact_lock(hashtext($1));`

	categoryBalance = `SELECT COALESCE(SUM(CASE WHEN type = 'IN' THEN amount ELSE -amount END), 0)
    FROM transactions WHERE category = $1;`
)

// netBalanceExpr folds the ledger into a signed running total.
const netBalanceExpr = `COALESCE(SUM(CASE WHEN type = 'IN' THEN amount ELSE -amount END), 0)`

// LedgerRepository is the PostgreSQL-backed implementation of
// ports.LedgerRepository. The transactions table is append-only; aggregates
// are computed in SQL rather than materialized.
type LedgerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLedgerRepository(db *sql.DB, logger zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger}
}

func (r *LedgerRepository) CreateIn(ctx context.Context, t *domain.Transaction) error {
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, insertTransaction,
		t.ID, t.Timestamp, t.Type, t.Amount, t.Description, t.Category, t.UserID)
	if err != nil {
		return fmt.Errorf("create stock in: %w", err)
	}
	return nil
}

// CreateOut appends an OUT transaction behind a per-category advisory lock,
// re-checking the balance inside the same database transaction. Two
// concurrent postings against the same category serialize here; the second
// sees the first's row and fails cleanly when the stock no longer covers it.
func (r *LedgerRepository) CreateOut(ctx context.Context, t *domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create stock out: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, lockCategory, t.Category); err != nil {
		return fmt.Errorf("lock category: %w", err)
	}

	var balance float64
	if err := tx.QueryRowContext(ctx, categoryBalance, t.Category).Scan(&balance); err != nil {
		return fmt.Errorf("check balance: %w", err)
	}
	if balance < t.Amount {
		return domain.ErrInsufficientStock
	}

	t.ID = uuid.NewString()
	_, err = tx.ExecContext(ctx, insertTransaction,
		t.ID, t.Timestamp, t.Type, t.Amount, t.Description, t.Category, t.UserID)
	if err != nil {
		return fmt.Errorf("create stock out: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create stock out: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Balance(ctx context.Context, category string) (float64, error) {
	return r.net(ctx, category, nil)
}

func (r *LedgerRepository) BalanceBefore(ctx context.Context, category string, t time.Time) (float64, error) {
	return r.net(ctx, category, sq.Lt{"timestamp": t})
}

func (r *LedgerRepository) net(ctx context.Context, category string, extra sq.Sqlizer) (float64, error) {
	q := psql.Select(netBalanceExpr).From("transactions")
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}
	if extra != nil {
		q = q.Where(extra)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build balance query: %w", err)
	}

	var balance float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepository) SumRange(ctx context.Context, category string, from, to time.Time) (float64, float64, error) {
	q := psql.Select(
		`COALESCE(SUM(amount) FILTER (WHERE type = 'IN'), 0)`,
		`COALESCE(SUM(amount) FILTER (WHERE type = 'OUT'), 0)`,
	).From("transactions").
		Where(sq.GtOrEq{"timestamp": from}).
		Where(sq.LtOrEq{"timestamp": to})
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build sum query: %w", err)
	}

	var in, out float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&in, &out); err != nil {
		return 0, 0, fmt.Errorf("query sums: %w", err)
	}
	return in, out, nil
}

func (r *LedgerRepository) DailyTotals(ctx context.Context, category string, from, to time.Time, loc *time.Location) ([]ports.DayTotals, error) {
	q := psql.Select().
		Column(sq.Expr(`(timestamp AT TIME ZONE ?)::date AS day`, loc.String())).
		Column(`COALESCE(SUM(amount) FILTER (WHERE type = 'IN'), 0)`).
		Column(`COALESCE(SUM(amount) FILTER (WHERE type = 'OUT'), 0)`).
		From("transactions").
		Where(sq.GtOrEq{"timestamp": from}).
		Where(sq.LtOrEq{"timestamp": to}).
		GroupBy("day").
		OrderBy("day")
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build daily totals query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []ports.DayTotals
	for rows.Next() {
		var day time.Time
		var dt ports.DayTotals
		if err := rows.Scan(&day, &dt.TotalIn, &dt.TotalOut); err != nil {
			return nil, fmt.Errorf("scan daily totals: %w", err)
		}
		// The ::date cast loses the zone; pin the day to midnight in loc so
		// map keys line up with the service's window iteration.
		dt.Day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		totals = append(totals, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	return totals, nil
}

func (r *LedgerRepository) List(ctx context.Context, filter ports.HistoryFilter) ([]*domain.Transaction, int64, error) {
	conds := listConditions(filter)

	countQ := psql.Select("COUNT(*)").
		From("transactions t").
		LeftJoin("users u ON u.id = t.user_id")
	for _, c := range conds {
		countQ = countQ.Where(c)
	}
	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build history count: %w", err)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	pageQ := psql.Select(
		"t.id", "t.timestamp", "t.type", "t.amount", "t.description", "t.category",
		"t.user_id", `COALESCE(u.username, '')`,
	).
		From("transactions t").
		LeftJoin("users u ON u.id = t.user_id").
		OrderBy("t.timestamp DESC", "t.id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page - 1) * filter.Limit))
	for _, c := range conds {
		pageQ = pageQ.Where(c)
	}
	query, args, err = pageQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build history page: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Type, &t.Amount, &t.Description,
			&t.Category, &t.UserID, &t.Username); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		items = append(items, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	return items, total, nil
}

func listConditions(filter ports.HistoryFilter) []sq.Sqlizer {
	var conds []sq.Sqlizer
	if filter.Type != "" {
		conds = append(conds, sq.Eq{"t.type": filter.Type})
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, sq.GtOrEq{"t.timestamp": filter.StartDate})
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, sq.LtOrEq{"t.timestamp": filter.EndDate})
	}
	if filter.UserID != "" {
		conds = append(conds, sq.Eq{"t.user_id": filter.UserID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"t.description": pattern},
			sq.ILike{"u.username": pattern},
		})
	}
	return conds
}

var _ ports.LedgerRepository = (*LedgerRepository)(nil)
