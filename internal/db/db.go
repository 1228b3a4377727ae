// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db // import "github.com/vecinity/vecinity-api/internal/db"

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// pingTimeout bounds TestConnection.
const pingTimeout = 5 * time.Second

// PoolOptions tunes the sql.DB connection pool. Zero values keep the
// defaults below.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 60 * time.Second
)

// Store is the bun-backed storage handle shared by every request.
type Store struct {
	bun    *bun.DB
	driver string
}

// Kind returns the human label of a storage driver as shown by the health
// check and the startup banner.
func Kind(driver string) string {
	switch driver {
	case "mysql":
		return "MySQL"
	case "postgres":
		return "PostgreSQL"
	case "sqlite":
		return "SQLite"
	default:
		return driver
	}
}

// Open prepares a Store for driver ("mysql", "postgres" or "sqlite") and
// dsn. sql.Open does not dial, so connectivity is only proven by
// TestConnection.
func Open(ctx context.Context, driver, dsn string, pool PoolOptions) (*Store, error) {
	driverName := driver
	// The pgx stdlib registers driver name "pgx"; map "postgres" to that driver.
	if driver == "postgres" {
		driverName = "pgx"
	}
	switch driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database type: '%s'", driver)
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := orDefault(pool.MaxOpenConns, defaultMaxOpenConns)
	maxIdle := orDefault(pool.MaxIdleConns, defaultMaxIdleConns)
	// In-memory SQLite databases are per connection; keep a single one so
	// schema changes stay visible to every query.
	if driver == "sqlite" && (dsn == ":memory:" || strings.Contains(dsn, "mode=memory")) {
		maxOpen, maxIdle = 1, 1
	}
	lifetime := pool.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	idle := pool.ConnMaxIdleTime
	if idle <= 0 {
		idle = defaultConnMaxIdleTime
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetConnMaxIdleTime(idle)

	dbLogf("opened %s driver in %s (max open=%d, idle=%d, maxLifetime=%s)", driverName, time.Since(start), maxOpen, maxIdle, lifetime)

	return &Store{bun: createBunDB(sqlDB, driver), driver: driver}, nil
}

func orDefault(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and driver.
func createBunDB(sqlDB *sql.DB, driver string) *bun.DB {
	switch driver {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// Driver returns the configured driver name.
func (s *Store) Driver() string { return s.driver }

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.bun.Close()
}

// TestConnection probes reachability and credentials of the backing store.
func (s *Store) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.bun.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", Kind(s.driver), err)
	}
	dbLogf("connection to %s ok", Kind(s.driver))
	return nil
}
