package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/bosowa/fuel-ledger/internal/api/handler"
	"github.com/bosowa/fuel-ledger/internal/api/middleware"
	"github.com/bosowa/fuel-ledger/internal/core/domain"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// Dependencies carries everything the router needs. Services are constructed
// by the caller so the HTTP layer stays wiring-free.
type Dependencies struct {
	AuthService  ports.AuthService
	StockService ports.StockService
	UserService  ports.UserService

	DB    *sql.DB
	Redis *redis.Client // nil when caching is disabled

	JWTSecret      string
	CORSEnabled    bool
	CORSOrigins    []string
	SwaggerEnabled bool

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("fuelledger"))
	if deps.CORSEnabled {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: deps.CORSOrigins,
		}))
	}

	authHandler := handler.NewAuthHandler(deps.AuthService)
	stockHandler := handler.NewStockHandler(deps.StockService)
	userHandler := handler.NewUserHandler(deps.UserService)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout, authMiddleware)
	api.GET("/auth/me", authHandler.Profile, authMiddleware)

	// --- Stock routes ---
	// Summary and trend are the dashboard's public read surface; postings
	// and history stay behind auth.
	stock := api.Group("/stock")
	stock.POST("/in", stockHandler.AddStockIn, authMiddleware, middleware.RBAC(domain.RoleAdmin))
	stock.POST("/out", stockHandler.UseStockOut, authMiddleware, middleware.RBAC(domain.RoleOperasional))
	stock.GET("/summary", stockHandler.Summary)
	stock.GET("/trend", stockHandler.DailyStockTrend)
	stock.GET("/trend/in-out", stockHandler.DailyInOutTrend)
	stock.GET("/history", stockHandler.History, authMiddleware, middleware.RBAC(domain.RoleAdmin, domain.RoleOperasional))

	// --- User administration (admin only) ---
	users := api.Group("/users", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Operational surfaces (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	if deps.SwaggerEnabled {
		e.GET("/swagger/*", echoswagger.WrapHandler)
	}

	return e
}
