package ports

import (
	"context"
	"time"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
)

// StockInInput carries the data for recording incoming stock.
type StockInInput struct {
	Amount      float64
	Description string
	Category    string
	// Timestamp is an optional RFC 3339 date-time; server time when empty.
	Timestamp string
}

// StockOutInput carries the data for recording stock usage.
type StockOutInput struct {
	Amount      float64
	Description string
	Category    string
}

// StockSummary is the point-in-time view of the ledger, computed against a
// single "now" and a single timezone reference.
type StockSummary struct {
	CurrentStock      float64 `json:"currentStock"`
	TodayUsage        float64 `json:"todayUsage"`
	TodayInitialStock float64 `json:"todayInitialStock"`
	TodayStockIn      float64 `json:"todayStockIn"`
	TodayStockOut     float64 `json:"todayStockOut"`
	TodayClosingStock float64 `json:"todayClosingStock"`
}

// StockTrendPoint is one day in the stock-level trend. Opening stock of day
// d equals closing stock of day d-1.
type StockTrendPoint struct {
	Date         string  `json:"date"`
	Label        string  `json:"label"`
	OpeningStock float64 `json:"openingStock"`
	ClosingStock float64 `json:"closingStock"`
	Delta        float64 `json:"delta"`
}

// StockTrend is the stock-level series over a trailing window.
type StockTrend struct {
	Timezone  string            `json:"timezone"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Days      int               `json:"days"`
	Points    []StockTrendPoint `json:"points"`
}

// InOutTrendPoint is one day's raw IN and OUT volume, not net and not
// cumulative.
type InOutTrendPoint struct {
	Date     string  `json:"date"`
	Label    string  `json:"label"`
	TotalIn  float64 `json:"totalIn"`
	TotalOut float64 `json:"totalOut"`
}

// InOutTrend is the volume-comparison series over a trailing window.
type InOutTrend struct {
	Timezone  string            `json:"timezone"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Days      int               `json:"days"`
	Points    []InOutTrendPoint `json:"points"`
}

// HistoryInput carries the history query plus the acting principal for
// authorization scoping.
type HistoryInput struct {
	Type      string
	StartDate string
	EndDate   string
	UserID    string
	Search    string
	Page      int
	Limit     int
}

// HistoryPage is a page of ledger entries with the total match count for
// client-side page rendering.
type HistoryPage struct {
	Items      []*domain.Transaction `json:"data"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"totalPages"`
}

// SummaryCache is an optional read-through cache in front of Summary,
// sized to the dashboard polling interval. Implementations are best-effort:
// a miss or backend failure must never fail the read.
type SummaryCache interface {
	Get(ctx context.Context, category string) (*StockSummary, bool)
	Set(ctx context.Context, category string, summary *StockSummary)
	// Invalidate evicts the entry for category and the combined all-categories
	// entry, so a summary read directly after a posting never serves the
	// pre-posting value.
	Invalidate(ctx context.Context, category string)
}

// StockService is the stock accounting engine.
type StockService interface {
	AddStockIn(ctx context.Context, input StockInInput, actor domain.Principal) (*domain.Transaction, error)
	UseStockOut(ctx context.Context, input StockOutInput, actor domain.Principal) (*domain.Transaction, error)
	Summary(ctx context.Context, category string) (*StockSummary, error)
	DailyStockTrend(ctx context.Context, days int, category string) (*StockTrend, error)
	DailyInOutTrend(ctx context.Context, days int, category string) (*InOutTrend, error)
	History(ctx context.Context, input HistoryInput, actor domain.Principal) (*HistoryPage, error)
}

// Window bounds for trend queries.
const (
	MinTrendDays     = 1
	MaxTrendDays     = 30
	DefaultTrendDays = 7
)

// Pagination conventions shared by list endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ParseQueryTime parses an optional RFC 3339 query value. Zero time and nil
// error when s is empty.
func ParseQueryTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
