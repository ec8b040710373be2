package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// StockService is the stock accounting engine: it validates and persists
// ledger transactions and aggregates them into summaries and trend series.
// All day boundaries are computed in the configured reporting timezone.
type StockService struct {
	ledger ports.LedgerRepository
	cache  ports.SummaryCache // nil disables caching
	loc    *time.Location
	logger zerolog.Logger
	now    func() time.Time
}

func NewStockService(ledger ports.LedgerRepository, cache ports.SummaryCache, loc *time.Location, logger zerolog.Logger) *StockService {
	if loc == nil {
		loc = time.UTC
	}
	return &StockService{
		ledger: ledger,
		cache:  cache,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// AddStockIn records incoming stock. Admin only; the timestamp defaults to
// server time when the client supplies none.
func (s *StockService) AddStockIn(ctx context.Context, input ports.StockInInput, actor domain.Principal) (*domain.Transaction, error) {
	if !domain.Authorize(actor, domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.ValidCategory(input.Category) {
		return nil, domain.ErrInvalidCategory
	}

	ts := s.now()
	if input.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, input.Timestamp)
		if err != nil {
			return nil, domain.ErrInvalidTimestamp
		}
		ts = parsed
	}

	txn := &domain.Transaction{
		Timestamp:   ts,
		Type:        domain.TxIn,
		Amount:      domain.RoundAmount(input.Amount),
		Description: input.Description,
		Category:    input.Category,
		UserID:      &actor.ID,
		Username:    actor.Username,
	}
	if err := s.ledger.CreateIn(ctx, txn); err != nil {
		s.logger.Error().Err(err).Str("category", input.Category).Msg("failed to record stock in")
		return nil, err
	}
	s.invalidateSummary(ctx, txn.Category)

	s.logger.Info().
		Str("category", txn.Category).
		Float64("amount", txn.Amount).
		Str("user_id", actor.ID).
		Msg("stock in recorded")
	return txn, nil
}

// UseStockOut records stock usage. Operational users may only post against
// their own assigned site, and the posting is rejected when it would drive
// the category balance negative.
func (s *StockService) UseStockOut(ctx context.Context, input ports.StockOutInput, actor domain.Principal) (*domain.Transaction, error) {
	if !domain.Authorize(actor, domain.RoleOperasional) {
		return nil, domain.ErrForbidden
	}
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.ValidCategory(input.Category) {
		return nil, domain.ErrInvalidCategory
	}
	if actor.Site != input.Category {
		return nil, domain.ErrForbidden
	}

	amount := domain.RoundAmount(input.Amount)
	balance, err := s.ledger.Balance(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		s.logger.Warn().
			Str("category", input.Category).
			Float64("amount", amount).
			Float64("balance", balance).
			Msg("stock out rejected: insufficient stock")
		return nil, domain.ErrInsufficientStock
	}

	txn := &domain.Transaction{
		Timestamp:   s.now(),
		Type:        domain.TxOut,
		Amount:      amount,
		Description: input.Description,
		Category:    input.Category,
		UserID:      &actor.ID,
		Username:    actor.Username,
	}
	// CreateOut re-checks the balance inside the store's transactional
	// boundary; two concurrent postings cannot both pass the check above.
	if err := s.ledger.CreateOut(ctx, txn); err != nil {
		if err != domain.ErrInsufficientStock {
			s.logger.Error().Err(err).Str("category", input.Category).Msg("failed to record stock out")
		}
		return nil, err
	}
	s.invalidateSummary(ctx, txn.Category)

	s.logger.Info().
		Str("category", txn.Category).
		Float64("amount", txn.Amount).
		Str("user_id", actor.ID).
		Msg("stock out recorded")
	return txn, nil
}

// Summary computes the point-in-time stock view for category (all categories
// when empty). A single now and a single timezone cover the whole
// computation so the "today" window and the current balance cannot disagree.
func (s *StockService) Summary(ctx context.Context, category string) (*ports.StockSummary, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, domain.ErrInvalidCategory
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, category); ok {
			return cached, nil
		}
	}

	now := s.now().In(s.loc)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	opening, err := s.ledger.BalanceBefore(ctx, category, startOfDay)
	if err != nil {
		return nil, err
	}
	todayIn, todayOut, err := s.ledger.SumRange(ctx, category, startOfDay, now)
	if err != nil {
		return nil, err
	}

	current := domain.RoundAmount(opening + todayIn - todayOut)
	summary := &ports.StockSummary{
		CurrentStock:      current,
		TodayUsage:        domain.RoundAmount(todayOut),
		TodayInitialStock: domain.RoundAmount(opening),
		TodayStockIn:      domain.RoundAmount(todayIn),
		TodayStockOut:     domain.RoundAmount(todayOut),
		TodayClosingStock: current,
	}

	if s.cache != nil {
		s.cache.Set(ctx, category, summary)
	}
	return summary, nil
}

// DailyStockTrend produces one point per calendar day for the trailing days
// window ending today, chronologically ascending. Opening stock of each day
// equals the previous day's closing stock; the first day opens at the
// balance accumulated before the window (zero on a fresh ledger).
func (s *StockService) DailyStockTrend(ctx context.Context, days int, category string) (*ports.StockTrend, error) {
	window, err := s.trendWindow(days, category)
	if err != nil {
		return nil, err
	}

	opening, err := s.ledger.BalanceBefore(ctx, category, window.start)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledger.DailyTotals(ctx, category, window.start, window.now, s.loc)
	if err != nil {
		return nil, err
	}
	byDay := indexTotals(totals)

	points := make([]ports.StockTrendPoint, 0, days)
	running := opening
	for day := window.start; day.Before(window.end); day = day.AddDate(0, 0, 1) {
		dt := byDay[day.Format(dateKeyFormat)]
		open := running
		running = domain.RoundAmount(running + dt.TotalIn - dt.TotalOut)
		points = append(points, ports.StockTrendPoint{
			Date:         day.Format(dateKeyFormat),
			Label:        day.Format(dateLabelFormat),
			OpeningStock: domain.RoundAmount(open),
			ClosingStock: running,
			Delta:        domain.RoundAmount(dt.TotalIn - dt.TotalOut),
		})
	}

	return &ports.StockTrend{
		Timezone:  s.loc.String(),
		StartDate: window.start.Format(dateKeyFormat),
		EndDate:   window.today.Format(dateKeyFormat),
		Days:      days,
		Points:    points,
	}, nil
}

// DailyInOutTrend produces the raw per-day IN/OUT volume series over the
// same window and ordering rules as DailyStockTrend. Independent of the
// running balance.
func (s *StockService) DailyInOutTrend(ctx context.Context, days int, category string) (*ports.InOutTrend, error) {
	window, err := s.trendWindow(days, category)
	if err != nil {
		return nil, err
	}

	totals, err := s.ledger.DailyTotals(ctx, category, window.start, window.now, s.loc)
	if err != nil {
		return nil, err
	}
	byDay := indexTotals(totals)

	points := make([]ports.InOutTrendPoint, 0, days)
	for day := window.start; day.Before(window.end); day = day.AddDate(0, 0, 1) {
		dt := byDay[day.Format(dateKeyFormat)]
		points = append(points, ports.InOutTrendPoint{
			Date:     day.Format(dateKeyFormat),
			Label:    day.Format(dateLabelFormat),
			TotalIn:  domain.RoundAmount(dt.TotalIn),
			TotalOut: domain.RoundAmount(dt.TotalOut),
		})
	}

	return &ports.InOutTrend{
		Timezone:  s.loc.String(),
		StartDate: window.start.Format(dateKeyFormat),
		EndDate:   window.today.Format(dateKeyFormat),
		Days:      days,
		Points:    points,
	}, nil
}

// History returns a filtered, paginated view of the ledger. Operational
// actors are restricted to their own transactions regardless of the
// client-supplied filter; admins may filter by any user.
func (s *StockService) History(ctx context.Context, input ports.HistoryInput, actor domain.Principal) (*ports.HistoryPage, error) {
	if !domain.Authorize(actor, domain.RoleAdmin, domain.RoleOperasional) {
		return nil, domain.ErrForbidden
	}
	if input.Type != "" && input.Type != domain.TxIn && input.Type != domain.TxOut {
		return nil, domain.ErrInvalidType
	}

	startDate, err := ports.ParseQueryTime(input.StartDate)
	if err != nil {
		return nil, domain.ErrInvalidTimestamp
	}
	endDate, err := ports.ParseQueryTime(input.EndDate)
	if err != nil {
		return nil, domain.ErrInvalidTimestamp
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = ports.DefaultPageLimit
	}
	if limit > ports.MaxPageLimit {
		limit = ports.MaxPageLimit
	}

	userID := input.UserID
	if actor.Role == domain.RoleOperasional {
		// Authorization scoping, not a client filter.
		userID = actor.ID
	}

	items, total, err := s.ledger.List(ctx, ports.HistoryFilter{
		Type:      input.Type,
		StartDate: startDate,
		EndDate:   endDate,
		UserID:    userID,
		Search:    input.Search,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.HistoryPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// invalidateSummary evicts the cached summary for category after a posting.
// Without this a write followed by a summary read would serve the stale
// pre-write value for up to the cache TTL.
func (s *StockService) invalidateSummary(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, category)
}

const (
	dateKeyFormat   = "2006-01-02"
	dateLabelFormat = "2 Jan"
)

type trendWindow struct {
	start time.Time // midnight of the first day in the window
	end   time.Time // midnight after the last day (exclusive bound)
	today time.Time // midnight of today
	now   time.Time
}

func (s *StockService) trendWindow(days int, category string) (trendWindow, error) {
	if days < ports.MinTrendDays || days > ports.MaxTrendDays {
		return trendWindow{}, domain.ErrInvalidDays
	}
	if category != "" && !domain.ValidCategory(category) {
		return trendWindow{}, domain.ErrInvalidCategory
	}
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return trendWindow{
		start: today.AddDate(0, 0, -(days - 1)),
		end:   today.AddDate(0, 0, 1),
		today: today,
		now:   now,
	}, nil
}

func indexTotals(totals []ports.DayTotals) map[string]ports.DayTotals {
	byDay := make(map[string]ports.DayTotals, len(totals))
	for _, t := range totals {
		byDay[t.Day.Format(dateKeyFormat)] = t
	}
	return byDay
}
