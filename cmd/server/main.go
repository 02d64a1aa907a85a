// Command server runs the commerce chat HTTP API.
//
// @title          Commerce Chat API
// @version        1.0
// @description    Conversational assistant for product search and order inquiries.
// @BasePath       /api
// @schemes        http https
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-commerce-chat/internal/config"
	httpapi "github.com/tbourn/go-commerce-chat/internal/http"
	"github.com/tbourn/go-commerce-chat/internal/llm"
	"github.com/tbourn/go-commerce-chat/internal/observability"
	"github.com/tbourn/go-commerce-chat/internal/repo"
	"github.com/tbourn/go-commerce-chat/internal/services"
	"github.com/tbourn/go-commerce-chat/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogging("info", false, nil)
		log.Fatal().Err(err).Msg("load configuration")
	}
	logger := sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, nil)
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, cfg.AppEnv, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.EnableTracing(db); err != nil {
		logger.Fatal().Err(err).Msg("enable database tracing")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}
	if stats, err := repo.LoadCatalogStats(ctx, db); err == nil {
		logger.Info().Int64("products", stats.Products).Int64("orders", stats.Orders).Msg("catalogue loaded")
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("no LLM API key configured; replies will use fallbacks")
	}
	completer, err := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithTimeout(cfg.LLM.Timeout),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("create LLM client")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, completer, cfg)

	purger := &services.IdempotencyPurger{DB: db, Interval: cfg.IdempotencyPurge}
	go purger.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.AppEnv).
			Str("version", version).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server stopped")
}
