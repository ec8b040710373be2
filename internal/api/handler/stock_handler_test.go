package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

type stubStockService struct {
	addInFn   func(ctx context.Context, input ports.StockInInput, actor domain.Principal) (*domain.Transaction, error)
	useOutFn  func(ctx context.Context, input ports.StockOutInput, actor domain.Principal) (*domain.Transaction, error)
	summaryFn func(ctx context.Context, category string) (*ports.StockSummary, error)
	trendFn   func(ctx context.Context, days int, category string) (*ports.StockTrend, error)
	inOutFn   func(ctx context.Context, days int, category string) (*ports.InOutTrend, error)
	historyFn func(ctx context.Context, input ports.HistoryInput, actor domain.Principal) (*ports.HistoryPage, error)
}

func (s *stubStockService) AddStockIn(ctx context.Context, input ports.StockInInput, actor domain.Principal) (*domain.Transaction, error) {
	return s.addInFn(ctx, input, actor)
}

func (s *stubStockService) UseStockOut(ctx context.Context, input ports.StockOutInput, actor domain.Principal) (*domain.Transaction, error) {
	return s.useOutFn(ctx, input, actor)
}

func (s *stubStockService) Summary(ctx context.Context, category string) (*ports.StockSummary, error) {
	return s.summaryFn(ctx, category)
}

func (s *stubStockService) DailyStockTrend(ctx context.Context, days int, category string) (*ports.StockTrend, error) {
	return s.trendFn(ctx, days, category)
}

func (s *stubStockService) DailyInOutTrend(ctx context.Context, days int, category string) (*ports.InOutTrend, error) {
	return s.inOutFn(ctx, days, category)
}

func (s *stubStockService) History(ctx context.Context, input ports.HistoryInput, actor domain.Principal) (*ports.HistoryPage, error) {
	return s.historyFn(ctx, input, actor)
}

func adminContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-admin")
	c.Set("username", "Admin Bosowa")
	c.Set("role", domain.RoleAdmin)
	c.Set("site", domain.SiteAll)
	return c
}

func TestStockHandler_AddStockIn_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubStockService{
		addInFn: func(ctx context.Context, input ports.StockInInput, actor domain.Principal) (*domain.Transaction, error) {
			if input.Amount != 100.5 || input.Category != domain.SiteGenset {
				t.Fatalf("unexpected input: %+v", input)
			}
			if actor.ID != "user-admin" || actor.Role != domain.RoleAdmin {
				t.Fatalf("unexpected actor: %+v", actor)
			}
			return &domain.Transaction{ID: "txn-1", Type: domain.TxIn, Amount: input.Amount, Category: input.Category}, nil
		},
	}
	handler := NewStockHandler(stub)

	body := strings.NewReader(`{"amount":100.5,"category":"GENSET","description":"Pembelian"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/stock/in", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := adminContext(e, req, rec)

	if err := handler.AddStockIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "txn-1" || resp["type"] != domain.TxIn {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestStockHandler_AddStockIn_ValidationFailures(t *testing.T) {
	e := newTestEcho()
	stub := &stubStockService{
		addInFn: func(ctx context.Context, input ports.StockInInput, actor domain.Principal) (*domain.Transaction, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewStockHandler(stub)

	for name, body := range map[string]string{
		"zero amount":      `{"amount":0,"category":"GENSET"}`,
		"negative amount":  `{"amount":-3,"category":"GENSET"}`,
		"missing category": `{"amount":10}`,
		"bad category":     `{"amount":10,"category":"WAREHOUSE"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/stock/in", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := adminContext(e, req, rec)

		err := handler.AddStockIn(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400 HTTPError, got %v", name, err)
		}
	}
}

func TestStockHandler_UseStockOut_InsufficientStock(t *testing.T) {
	e := newTestEcho()
	stub := &stubStockService{
		useOutFn: func(ctx context.Context, input ports.StockOutInput, actor domain.Principal) (*domain.Transaction, error) {
			return nil, domain.ErrInsufficientStock
		},
	}
	handler := NewStockHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/stock/out", strings.NewReader(`{"amount":500,"category":"GENSET"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user-op")
	c.Set("role", domain.RoleOperasional)
	c.Set("site", domain.SiteGenset)

	if err := handler.UseStockOut(c); err != domain.ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock to propagate, got %v", err)
	}
}

func TestStockHandler_Summary(t *testing.T) {
	e := newTestEcho()
	stub := &stubStockService{
		summaryFn: func(ctx context.Context, category string) (*ports.StockSummary, error) {
			if category != domain.SiteGenset {
				t.Fatalf("unexpected category: %q", category)
			}
			return &ports.StockSummary{CurrentStock: 310, TodayUsage: 20}, nil
		},
	}
	handler := NewStockHandler(stub)

	// No claims: summary is a public read for the dashboard.
	req := httptest.NewRequest(http.MethodGet, "/api/stock/summary?category=GENSET", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["currentStock"] != 310.0 || resp["todayUsage"] != 20.0 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestStockHandler_Trend_DaysParsing(t *testing.T) {
	e := newTestEcho()
	var gotDays int
	stub := &stubStockService{
		trendFn: func(ctx context.Context, days int, category string) (*ports.StockTrend, error) {
			gotDays = days
			return &ports.StockTrend{Days: days}, nil
		},
	}
	handler := NewStockHandler(stub)

	// Default when the parameter is absent. Trend reads carry no claims.
	req := httptest.NewRequest(http.MethodGet, "/api/stock/trend", nil)
	rec := httptest.NewRecorder()
	if err := handler.DailyStockTrend(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotDays != ports.DefaultTrendDays {
		t.Fatalf("expected default days %d, got %d", ports.DefaultTrendDays, gotDays)
	}

	// Explicit value.
	req = httptest.NewRequest(http.MethodGet, "/api/stock/trend?days=30", nil)
	rec = httptest.NewRecorder()
	if err := handler.DailyStockTrend(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotDays != 30 {
		t.Fatalf("expected 30, got %d", gotDays)
	}

	// Non-numeric input never reaches the service.
	req = httptest.NewRequest(http.MethodGet, "/api/stock/trend?days=week", nil)
	rec = httptest.NewRecorder()
	err := handler.DailyStockTrend(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestStockHandler_History_QueryBinding(t *testing.T) {
	e := newTestEcho()
	stub := &stubStockService{
		historyFn: func(ctx context.Context, input ports.HistoryInput, actor domain.Principal) (*ports.HistoryPage, error) {
			if input.Type != "OUT" || input.Search != "genset" || input.Page != 2 || input.Limit != 50 {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &ports.HistoryPage{Items: []*domain.Transaction{}, Total: 0, Page: 2, Limit: 50}, nil
		},
	}
	handler := NewStockHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/history?type=OUT&q=genset&page=2&limit=50", nil)
	rec := httptest.NewRecorder()
	c := adminContext(e, req, rec)

	if err := handler.History(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStockHandler_History_BadType(t *testing.T) {
	e := newTestEcho()
	stub := &stubStockService{
		historyFn: func(ctx context.Context, input ports.HistoryInput, actor domain.Principal) (*ports.HistoryPage, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewStockHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/history?type=TRANSFER", nil)
	rec := httptest.NewRecorder()
	c := adminContext(e, req, rec)

	err := handler.History(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestStockHandler_History_MissingClaims(t *testing.T) {
	e := newTestEcho()
	handler := NewStockHandler(&stubStockService{})

	req := httptest.NewRequest(http.MethodGet, "/api/stock/history", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.History(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
