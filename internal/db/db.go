// Package db opens the database, migrates it and runs transactions.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/starquake/trivia/internal/migrations"
	"github.com/starquake/trivia/internal/must"
)

// ErrUnsupportedDriver is returned for a driver without migrations. Only SQLite has them.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

const sqliteDialect = "sqlite3"

// SetupGoose points goose at the embedded migrations.
// Tests call it once from TestMain because goose keeps this in globals.
func SetupGoose() {
	goose.SetBaseFS(migrations.FS)
	must.OK(goose.SetDialect(sqliteDialect))
}

// Dialect returns the goose dialect for a database/sql driver name.
func Dialect(driver string) (string, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// Open connects to uri and pings it before the pool limits are applied.
// The connection is closed again when the ping fails.
func Open(
	ctx context.Context,
	driver, uri string,
	maxOpenConns, maxIdleConns int,
	connMaxLifetime time.Duration,
) (*sql.DB, error) {
	conn, err := sql.Open(driver, uri)
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", driver, err)
	}

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("error pinging %s database: %w", driver, err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)

	return conn, nil
}

// Migrate brings the schema and the reference categories up to date. Running it again is a no-op.
func Migrate(ctx context.Context, conn *sql.DB, driver string) error {
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.FS)
	if err = goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("error setting goose dialect %s: %w", dialect, err)
	}
	if err = goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	return nil
}

// ExecTx runs fn inside a transaction. The transaction is rolled back when fn returns an error.
func ExecTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %w)", err, rbErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
