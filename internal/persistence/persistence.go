package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	// DriverSQLite selects the embedded sqlite3 driver.
	DriverSQLite = "sqlite3"
	// DriverPostgres selects the lib/pq postgres driver.
	DriverPostgres = "postgres"
)

var (
	ErrDriverUnsupported = errors.New("persistence: unsupported driver")
	ErrDSNRequired       = errors.New("persistence: dsn is required")
)

// Config selects the SQL backend. SQLite is the default for embedded and
// test scenarios; postgres is the production target.
type Config struct {
	Driver string
	DSN    string
}

// Open establishes a database handle wrapped with the matching bun dialect.
// Callers own the returned handle and must close it.
func Open(cfg Config) (*bun.DB, error) {
	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" {
		driver = DriverSQLite
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrDSNRequired
	}
	// Reject unknown drivers before sql.Open so callers get the sentinel
	// rather than an opaque driver-registry error.
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriverUnsupported, driver)
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		// sqlite shared-cache handles break under concurrent writers.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}
