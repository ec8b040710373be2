package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bosowa/fuel-ledger/internal/api/metrics"
	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

type StockHandler struct {
	stockService ports.StockService
}

func NewStockHandler(stockService ports.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// AddStockIn records incoming fuel stock.
//
// @Summary      Record incoming stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body      stockInRequest  true  "Stock in details"
// @Success      201   {object}  domain.Transaction
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Security     BearerAuth
// @Router       /stock/in [post]
func (h *StockHandler) AddStockIn(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req stockInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	txn, err := h.stockService.AddStockIn(c.Request().Context(), ports.StockInInput{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Timestamp:   req.Timestamp,
	}, principal)
	if err != nil {
		metrics.TransactionsRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
		return err
	}

	metrics.TransactionsRecordedTotal.WithLabelValues(txn.Type, txn.Category).Inc()
	return c.JSON(http.StatusCreated, txn)
}

// UseStockOut records fuel usage against the caller's site.
//
// @Summary      Record stock usage
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body      stockOutRequest  true  "Stock out details"
// @Success      201   {object}  domain.Transaction
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Security     BearerAuth
// @Router       /stock/out [post]
func (h *StockHandler) UseStockOut(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req stockOutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	txn, err := h.stockService.UseStockOut(c.Request().Context(), ports.StockOutInput{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}, principal)
	if err != nil {
		metrics.TransactionsRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
		return err
	}

	metrics.TransactionsRecordedTotal.WithLabelValues(txn.Type, txn.Category).Inc()
	return c.JSON(http.StatusCreated, txn)
}

// Summary returns the current stock summary for the dashboard. Unlike the
// posting endpoints, this is a public read.
//
// @Summary      Stock summary
// @Tags         stock
// @Produce      json
// @Param        category  query     string  false  "Stock category (GENSET or TUG_ASSIST); all categories when omitted"
// @Success      200       {object}  ports.StockSummary
// @Failure      400       {object}  map[string]string
// @Router       /stock/summary [get]
func (h *StockHandler) Summary(c echo.Context) error {
	timer := time.Now()
	summary, err := h.stockService.Summary(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return err
	}
	metrics.ReportDuration.WithLabelValues("summary").Observe(time.Since(timer).Seconds())

	return c.JSON(http.StatusOK, summary)
}

// DailyStockTrend returns the per-day stock level series. Public read.
//
// @Summary      Daily stock trend
// @Tags         stock
// @Produce      json
// @Param        days      query     int     false  "Trailing window size in days (1-30, default 7)"
// @Param        category  query     string  false  "Stock category; all categories when omitted"
// @Success      200       {object}  ports.StockTrend
// @Failure      400       {object}  map[string]string
// @Router       /stock/trend [get]
func (h *StockHandler) DailyStockTrend(c echo.Context) error {
	days, err := queryDays(c)
	if err != nil {
		return err
	}

	timer := time.Now()
	trend, err := h.stockService.DailyStockTrend(c.Request().Context(), days, c.QueryParam("category"))
	if err != nil {
		return err
	}
	metrics.ReportDuration.WithLabelValues("stock_trend").Observe(time.Since(timer).Seconds())

	return c.JSON(http.StatusOK, trend)
}

// DailyInOutTrend returns the per-day IN/OUT volume series. Public read.
//
// @Summary      Daily in/out trend
// @Tags         stock
// @Produce      json
// @Param        days      query     int     false  "Trailing window size in days (1-30, default 7)"
// @Param        category  query     string  false  "Stock category; all categories when omitted"
// @Success      200       {object}  ports.InOutTrend
// @Failure      400       {object}  map[string]string
// @Router       /stock/trend/in-out [get]
func (h *StockHandler) DailyInOutTrend(c echo.Context) error {
	days, err := queryDays(c)
	if err != nil {
		return err
	}

	timer := time.Now()
	trend, err := h.stockService.DailyInOutTrend(c.Request().Context(), days, c.QueryParam("category"))
	if err != nil {
		return err
	}
	metrics.ReportDuration.WithLabelValues("in_out_trend").Observe(time.Since(timer).Seconds())

	return c.JSON(http.StatusOK, trend)
}

// History returns a filtered, paginated slice of the ledger. Operational
// callers only ever see their own transactions.
//
// @Summary      Transaction history
// @Tags         stock
// @Produce      json
// @Param        type       query     string  false  "Transaction type (IN or OUT)"
// @Param        startDate  query     string  false  "Inclusive lower bound, RFC 3339"
// @Param        endDate    query     string  false  "Inclusive upper bound, RFC 3339"
// @Param        userId     query     string  false  "Filter by author (admin only)"
// @Param        q          query     string  false  "Free-text match on description and author name"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Page size (default 20, max 100)"
// @Success      200        {object}  ports.HistoryPage
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Security     BearerAuth
// @Router       /stock/history [get]
func (h *StockHandler) History(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var q historyQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	timer := time.Now()
	page, err := h.stockService.History(c.Request().Context(), ports.HistoryInput{
		Type:      q.Type,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		UserID:    q.UserID,
		Search:    q.Search,
		Page:      q.Page,
		Limit:     q.Limit,
	}, principal)
	if err != nil {
		return err
	}
	metrics.ReportDuration.WithLabelValues("history").Observe(time.Since(timer).Seconds())

	return c.JSON(http.StatusOK, page)
}

// rejectionReason maps a posting failure to its metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidCategory):
		return "invalid_category"
	case errors.Is(err, domain.ErrInvalidTimestamp):
		return "invalid_timestamp"
	default:
		return "error"
	}
}

// queryDays parses the optional days query parameter. Range checking is the
// service's concern; only non-numeric input is rejected here.
func queryDays(c echo.Context) (int, error) {
	raw := c.QueryParam("days")
	if raw == "" {
		return ports.DefaultTrendDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "days must be an integer")
	}
	return days, nil
}
