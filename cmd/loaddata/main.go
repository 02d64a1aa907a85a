// Command loaddata clears and reloads the product and order tables from the
// CSV exports in DATA_DIR, then prints catalogue statistics.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-commerce-chat/internal/config"
	"github.com/tbourn/go-commerce-chat/internal/ingest"
	"github.com/tbourn/go-commerce-chat/internal/repo"
	"github.com/tbourn/go-commerce-chat/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogging("info", false, nil)
		log.Fatal().Err(err).Msg("load configuration")
	}
	logger := sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stdout)

	dir := flag.String("data", cfg.DataDir, "directory containing products.csv and orders.csv")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	batch := flag.Int("batch", ingest.DefaultBatchSize, "insert batch size")
	flag.Parse()

	ctx := logger.WithContext(context.Background())

	db, err := repo.OpenSQLite(*dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *dbPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	logger.Info().Str("dir", *dir).Str("db", *dbPath).Msg("loading catalogue")
	sum, err := ingest.LoadDir(ctx, db, *dir, *batch)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalogue")
	}
	logger.Info().
		Int("products", sum.Products).
		Int("orders", sum.Orders).
		Int("skipped_products", sum.SkippedProducts).
		Int("skipped_orders", sum.SkippedOrders).
		Msg("catalogue loaded")

	stats, err := repo.LoadCatalogStats(ctx, db)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalogue statistics")
	}
	logger.Info().
		Int64("products", stats.Products).
		Int64("orders", stats.Orders).
		Int64("unique_users", stats.DistinctUsers).
		Msg("database statistics")
	for _, s := range stats.ByStatus {
		logger.Info().Str("status", s.Status).Int64("count", s.Count).Msg("order status")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
