// @title        Fuel Ledger API
// @version      1.0
// @description  Fuel stock ledger: transactions, summaries, trends and user administration.
// @BasePath     /api
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redislib "github.com/redis/go-redis/v9"

	_ "github.com/bosowa/fuel-ledger/docs"
	"github.com/bosowa/fuel-ledger/internal/api"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
	"github.com/bosowa/fuel-ledger/internal/core/service"
	"github.com/bosowa/fuel-ledger/internal/infrastructure/config"
	"github.com/bosowa/fuel-ledger/internal/infrastructure/db/postgres"
	"github.com/bosowa/fuel-ledger/internal/infrastructure/db/redis"
	"github.com/bosowa/fuel-ledger/migrations"
	"github.com/bosowa/fuel-ledger/pkg/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid reporting timezone")
	}

	// --- Postgres ---
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migrations.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// --- Redis (optional summary cache) ---
	var rdb *redislib.Client
	var cache ports.SummaryCache
	if cfg.Redis.Enabled {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		cache = redis.NewSummaryCache(rdb, cfg.Redis.CacheTTL, log)
	}

	// --- Repositories & services ---
	userRepo := postgres.NewUserRepository(db, log)
	tokenRepo := postgres.NewRefreshTokenRepository(db, log)
	ledgerRepo := postgres.NewLedgerRepository(db, log)

	authService := service.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log)
	stockService := service.NewStockService(ledgerRepo, cache, loc, log)
	userService := service.NewUserService(userRepo, cfg.SeedDefaults, log)

	userService.Seed(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.Dependencies{
		AuthService:    authService,
		StockService:   stockService,
		UserService:    userService,
		DB:             db,
		Redis:          rdb,
		JWTSecret:      cfg.JWTSecret,
		CORSEnabled:    cfg.CORSEnabled,
		CORSOrigins:    cfg.CORSOrigins,
		SwaggerEnabled: cfg.SwaggerEnabled,
		Logger:         log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("timezone", loc.String()).Msg("fuel ledger started")

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
