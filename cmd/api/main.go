package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/royalresponse/platform/internal/agents"
	"github.com/royalresponse/platform/internal/api/router"
	"github.com/royalresponse/platform/internal/bookings"
	appconfig "github.com/royalresponse/platform/internal/config"
	"github.com/royalresponse/platform/internal/conversations"
	"github.com/royalresponse/platform/internal/leads"
	"github.com/royalresponse/platform/internal/properties"
	"github.com/royalresponse/platform/internal/prospects"
	"github.com/royalresponse/platform/internal/webhooks"
	"github.com/royalresponse/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting royal-response API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// The server must not accept traffic without a working database.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// The prospects pipeline rides on database/sql over the same database.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Repositories
	agentRepo := agents.NewRepository(pool)
	propertyRepo := properties.NewRepository(pool)
	leadRepo := leads.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	conversationRepo := conversations.NewRepository(pool)
	prospectRepo := prospects.NewRepository(sqlDB)

	// Services
	leadSvc := leads.NewService(leadRepo, logger)
	bookingLock := bookings.NewTenantLock(redisClient, cfg.BookingLockTTL, cfg.BookingLockRetry, logger)
	bookingSvc := bookings.NewService(bookingRepo, bookingLock, leadSvc, bookings.Options{
		Window:                 bookings.Window{Start: cfg.BookingDayStart, End: cfg.BookingDayEnd},
		SlotGranularityMinutes: cfg.SlotGranularityMinutes,
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
		ConflictPerProperty:    cfg.ConflictScope == appconfig.ConflictScopeProperty,
	}, logger)
	conversationSvc := conversations.NewService(conversationRepo, agentRepo, logger)

	// Handlers
	routerCfg := &router.Config{
		Logger:             logger,
		AgentRepo:          agentRepo,
		PropertiesHandler:  properties.NewHandler(propertyRepo, logger),
		LeadsHandler:       leads.NewHandler(leadSvc, logger),
		BookingsHandler:    bookings.NewHandler(bookingSvc, logger),
		WebhooksHandler:    webhooks.NewHandler(leadSvc, bookingSvc, propertyRepo, conversationSvc, cfg.PropertySearchLimit, logger),
		AgentsHandler:      agents.NewHandler(agentRepo, logger),
		ProspectsHandler:   prospects.NewHandler(prospectRepo),
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
