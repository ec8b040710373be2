package ports

import (
	"context"
	"time"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

// HistoryFilter carries all query parameters for listing ledger entries.
// UserID is enforced by the service layer for operational actors (RBAC
// scoping), not a filter they can override.
type HistoryFilter struct {
	Type      string    // optional: "IN" or "OUT"
	StartDate time.Time // optional: timestamp >= StartDate
	EndDate   time.Time // optional: timestamp <= EndDate
	UserID    string    // optional: filter by authoring user
	Search    string    // optional: case-insensitive match on description or author name
	Page      int       // 1-based
	Limit     int       // max rows per page (capped at 100 by service)
}

// DayTotals is one calendar day's raw IN and OUT sums, grouped in the
// ledger's configured timezone.
type DayTotals struct {
	Day      time.Time // midnight of the day in the reporting timezone
	TotalIn  float64
	TotalOut float64
}

// LedgerRepository defines persistence operations for the append-only
// transaction ledger.
type LedgerRepository interface {
	// CreateIn appends an IN transaction.
	CreateIn(ctx context.Context, t *domain.Transaction) error
	// CreateOut appends an OUT transaction inside a single transactional
	// boundary that re-checks the category balance, returning
	// domain.ErrInsufficientStock when the posting would drive it negative.
	CreateOut(ctx context.Context, t *domain.Transaction) error
	// Balance returns the net IN minus OUT over the whole ledger for category
	// (all categories when empty).
	Balance(ctx context.Context, category string) (float64, error)
	// BalanceBefore returns the net IN minus OUT strictly before t.
	BalanceBefore(ctx context.Context, category string, t time.Time) (float64, error)
	// SumRange returns the IN and OUT sums for timestamps in [from, to].
	SumRange(ctx context.Context, category string, from, to time.Time) (in, out float64, err error)
	// DailyTotals returns per-day IN/OUT sums for timestamps in [from, to],
	// grouped by calendar day in loc, ascending. Days without transactions
	// are absent from the result.
	DailyTotals(ctx context.Context, category string, from, to time.Time, loc *time.Location) ([]DayTotals, error)
	// List returns a page of transactions matching filter plus the total count.
	List(ctx context.Context, filter HistoryFilter) ([]*domain.Transaction, int64, error)
}
