package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/devocional/internal/config"
)

// DB wraps sql.DB with the dialect of the driver it was opened with.
// Repositories use Dialect to render placeholders and upserts.
type DB struct {
	*sql.DB
	Dialect Dialect
	logger  *slog.Logger
}

// Open connects to the store selected by cfg.DBDriver and verifies the
// connection.
func Open(cfg config.Config, logger *slog.Logger) (*DB, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		auth := cfg.DBUser
		if cfg.DBPass != "" {
			auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return open(config.DriverMySQL, dsn, MySQL, 25, logger)
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DBUser, cfg.DBPass),
			Host:     cfg.DBHost + ":" + cfg.DBPort,
			Path:     "/" + cfg.DBName,
			RawQuery: "sslmode=" + url.QueryEscape(cfg.DBSSLMode),
		}
		return open(config.DriverPostgres, u.String(), Postgres, 25, logger)
	case config.DriverSQLite:
		return OpenSQLite(cfg.DBPath, logger)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a SQLite database at path.  ":memory:" gives a private
// in-memory database; the pool is pinned to one connection so every query
// sees the same memory.
func OpenSQLite(path string, logger *slog.Logger) (*DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	return open(config.DriverSQLite, dsn, SQLite, 1, logger)
}

func open(driver, dsn string, d Dialect, maxConns int, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// Pool settings
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	if driver != config.DriverSQLite {
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	logger.Info("database connected", slog.String("driver", driver))
	return &DB{DB: sqlDB, Dialect: d, logger: logger}, nil
}

// Health pings the database.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
