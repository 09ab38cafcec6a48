package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrUnsupportedDriver is returned for drivers other than sqlite3 and postgres.
	ErrUnsupportedDriver = errors.New("storage: unsupported driver")
	// ErrDSNRequired is returned when no connection string was configured.
	ErrDSNRequired = errors.New("storage: dsn required")
)

// Config selects the database backing the entity store.
type Config struct {
	Driver string
	DSN    string
	// Debug logs every statement through the storage logger.
	Debug bool
	// PingTimeout bounds the connectivity check. Zero skips the ping.
	PingTimeout time.Duration
}

// Option customises Open.
type Option func(*options)

type options struct {
	logger interfaces.Logger
}

// WithLogger sets the logger used for connection and query events.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open connects to the configured database and wraps it in a bun.DB using
// the matching dialect.
func Open(ctx context.Context, cfg Config, opts ...Option) (*bun.DB, error) {
	o := options{logger: logging.NoOp()}
	for _, opt := range opts {
		opt(&o)
	}

	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, ErrDSNRequired
	}

	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch driver := NormalizeDriver(cfg.Driver); driver {
	case DriverSQLite:
		sqlDB, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		// sqlite serialises writers; a single connection also keeps
		// in-memory databases alive for the lifetime of the process
		sqlDB.SetMaxOpenConns(1)
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case DriverPostgres:
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	if cfg.PingTimeout > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: ping %s: %w", cfg.Driver, err)
		}
	}

	if cfg.Debug {
		db = db.WithQueryHook(&queryLogger{logger: o.logger})
	}

	o.logger.Debug("storage.opened", "driver", NormalizeDriver(cfg.Driver))
	return db, nil
}

// NormalizeDriver maps common aliases onto the supported driver names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pgx", "pg":
		return DriverPostgres
	}
	return strings.ToLower(strings.TrimSpace(driver))
}

type queryLogger struct {
	logger interfaces.Logger
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.logger.Warn("storage.query.failed", "query", event.Query, "duration", duration, "error", event.Err)
		return
	}
	h.logger.Trace("storage.query", "query", event.Query, "duration", duration)
}
