package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/yndnr/contacts-go/internal/storage/sqlstore/migrations"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config configures the SQL store.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// DSN is a file path for SQLite or a connection string for PostgreSQL.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is a pooled SQL database holding users and contacts.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the database, verifies the connection and applies the
// embedded schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}

	var dsn string
	switch cfg.Driver {
	case DriverSQLite:
		dsn = sqliteDSN(cfg.DSN)
	case DriverPostgres:
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", cfg.Driver, err)
	}

	s := New(db, logger)
	n, err := ApplyMigrations(ctx, db, migrations.FS, cfg.Driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("sql store opened", "driver", cfg.Driver, "migrations_applied", n)
	return s, nil
}

// New wraps an existing connection without running migrations.
func New(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// sqliteDSN adds connection pragmas unless the caller supplied query parameters.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		dsn = filepath.Clean(dsn)
	}
	return dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Users returns the user directory backed by this store.
func (s *Store) Users() *UserRepo {
	return &UserRepo{db: s.db}
}

// Contacts returns the contact store backed by this store.
func (s *Store) Contacts() *ContactRepo {
	return &ContactRepo{db: s.db}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
