package execute

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Row is one result row keyed by column alias.
type Row map[string]any

// Executor runs command text with named arguments.
type Executor interface {
	Exec(ctx context.Context, text string, args []sql.NamedArg) (int64, error)
	Query(ctx context.Context, text string, args []sql.NamedArg) ([]Row, error)
}

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx that
// SQLExecutor needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLExecutor runs commands through database/sql. The driver must accept
// sql.NamedArg for @name placeholders (go-sqlite3 and go-mssqldb do).
type SQLExecutor struct {
	db Querier
}

// NewSQLExecutor wraps db.
func NewSQLExecutor(db Querier) *SQLExecutor {
	return &SQLExecutor{db: db}
}

func (e *SQLExecutor) Exec(ctx context.Context, text string, args []sql.NamedArg) (int64, error) {
	res, err := e.db.ExecContext(ctx, text, namedArgs(args)...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (e *SQLExecutor) Query(ctx context.Context, text string, args []sql.NamedArg) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, text, namedArgs(args)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func namedArgs(args []sql.NamedArg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// PgxConn is the subset of *pgx.Conn, *pgxpool.Pool and pgx.Tx that
// PgxExecutor needs.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxExecutor runs commands through a native pgx connection. Arguments
// are passed as pgx.NamedArgs, which rewrites @name to positional
// parameters.
type PgxExecutor struct {
	conn PgxConn
}

// NewPgxExecutor wraps conn.
func NewPgxExecutor(conn PgxConn) *PgxExecutor {
	return &PgxExecutor{conn: conn}
}

func (e *PgxExecutor) Exec(ctx context.Context, text string, args []sql.NamedArg) (int64, error) {
	tag, err := e.conn.Exec(ctx, text, pgxArgs(args))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (e *PgxExecutor) Query(ctx context.Context, text string, args []sql.NamedArg) ([]Row, error) {
	rows, err := e.conn.Query(ctx, text, pgxArgs(args))
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = Row(m)
	}
	return out, nil
}

func pgxArgs(args []sql.NamedArg) pgx.NamedArgs {
	out := make(pgx.NamedArgs, len(args))
	for _, a := range args {
		out[a.Name] = a.Value
	}
	return out
}
