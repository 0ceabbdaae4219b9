// Package runner executes compiled SQL against a SQLite database.
//
// The runner is the execution collaborator, not part of the compiler
// core: it hands the generated SQL to the engine and surfaces engine
// errors unchanged - a rejected statement is the engine's verdict, never
// reinterpreted here.
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// Runner wraps a SQLite database handle.
type Runner struct {
	db *sql.DB
}

// Open opens a SQLite database at the given path. ":memory:" opens a
// private in-memory database. SQLite allows a single writer, so the
// connection pool is capped at one connection.
func Open(path string) (*Runner, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Runner{db: db}, nil
}

// Close releases the database handle.
func (r *Runner) Close() error { return r.db.Close() }

// Exec runs a non-query statement (schema setup, inserts for fixtures).
func (r *Runner) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// ResultSet is a fully materialized query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Query executes compiled SQL and materializes the result. Engine errors
// propagate unchanged.
func (r *Runner) Query(ctx context.Context, query string) (*ResultSet, error) {
	slog.Debug("executing compiled sql", "sql", query)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// Normalize raw byte columns to strings for display and
			// comparison.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Info("query executed", "columns", len(rs.Columns), "rows", len(rs.Rows))
	return rs, nil
}
