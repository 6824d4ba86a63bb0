package execute

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite database at path with one connection and
// the pragmas the executor relies on:
//   - WAL journal mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to sqlite database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Connect opens an Executor for a database/sql-style driver name and
// data source. The returned close function releases the connection.
//
// Supported drivers are "sqlite3" (database/sql) and "pgx"/"postgres"
// (native pgx connection).
func Connect(ctx context.Context, driver, dsn string) (Executor, func() error, error) {
	switch driver {
	case "sqlite3":
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLExecutor(db), db.Close, nil
	case "pgx", "postgres":
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return NewPgxExecutor(conn), func() error { return conn.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("no executor for driver %q", driver)
	}
}
