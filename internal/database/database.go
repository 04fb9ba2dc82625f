// Package database is the relational collaborator services opt into via
// config: a pooled database/sql handle over sqlite or postgres, plus a
// small row-oriented DAO.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrUnknownDriver is returned for a db.driver value this layer does not
// support.
var ErrUnknownDriver = errors.New("unknown database driver")

// DB wraps a pooled connection and remembers the driver for placeholder
// rewriting (postgres wants $1..$n, sqlite wants ?).
type DB struct {
	*sql.DB
	driver string
}

// Open connects using the configured driver: "sqlite" (modernc, file or
// :memory: DSN) or "postgres" (pgx stdlib adapter).
func Open(driver, dsn string, poolSize int) (*DB, error) {
	var driverName string
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite":
		driverName = "sqlite"
	case "postgres":
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &DB{DB: db, driver: strings.ToLower(strings.TrimSpace(driver))}, nil
}

// Driver returns the normalized driver name ("sqlite" or "postgres").
func (db *DB) Driver() string { return db.driver }

// rebind rewrites '?' placeholders for the active driver.
func (db *DB) rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ExecRebound and QueryRebound run a '?'-placeholder statement on either
// driver.
func (db *DB) ExecRebound(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) QueryRebound(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}
