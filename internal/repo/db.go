// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file opens the SQLite database (pure Go driver),
// registers query tracing and migrates the schema.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// sqlitePragmas are applied to every new database handle.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// DBOptions tunes the connection pool and query logging.
type DBOptions struct {
	MaxOpenConns  int           // default 10
	SlowThreshold time.Duration // queries slower than this are logged at warn; default 500ms
}

func (o DBOptions) withDefaults() DBOptions {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	if o.SlowThreshold <= 0 {
		o.SlowThreshold = 500 * time.Millisecond
	}
	return o
}

// OpenSQLite opens (or creates) the database at path. The parent directory
// must exist. GORM's own logging is routed through the global zerolog logger
// and limited to warnings: slow queries and errors other than not-found.
func OpenSQLite(path string, opts ...DBOptions) (*gorm.DB, error) {
	var o DBOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("repo: database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(gormLogWriter{}, logger.Config{
			SlowThreshold:             o.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("repo: %s %w", p, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// gormLogWriter forwards GORM's printf-style output to zerolog at warn
// level; GORM only emits at that level under the configured LogLevel.
type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// EnableTracing registers the GORM OpenTelemetry plugin so every query is
// recorded as a child span of the request that issued it. Metrics are left
// to the Prometheus middleware.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates every table the service owns, including the
// read-only catalogue tables filled by cmd/loaddata.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Conversation{},
		&domain.Message{},
		&domain.Product{},
		&domain.Order{},
		&domain.Idempotency{},
	)
}
