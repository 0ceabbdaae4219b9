// Package compiler ties the window-expression compilation pipeline
// together: classification, clause resolution, the subquery rewrite, and
// SQL emission.
//
// Compilation is synchronous, deterministic in the size of the expression
// tree, and free of shared mutable state beyond the read-only classifier
// and dialect tables, so independent statements may compile concurrently
// without coordination.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/overql/overql/internal/clause"
	"github.com/overql/overql/internal/dialect"
	"github.com/overql/overql/internal/rewrite"
	"github.com/overql/overql/internal/sqlgen"
	"github.com/overql/overql/internal/windowir"
	"github.com/overql/overql/internal/winspec"
)

// Result is a successful compilation: the SQL text, the generated window
// aliases (alias → surface expression), and the rewritten statement for
// callers that want the structured form.
type Result struct {
	// ID correlates log lines for one compilation.
	ID string

	SQL     string
	Aliases map[string]string
	Stmt    *windowir.Statement

	// Nested reports whether the subquery rewrite fired.
	Nested bool
}

// Compile compiles one statement against its context snapshot. There is
// no partial output: the statement compiles fully or the first error is
// returned.
func Compile(stmt *windowir.Statement, ctx windowir.QueryContext) (*Result, error) {
	if stmt == nil {
		return nil, fmt.Errorf("cannot compile nil statement")
	}
	id := uuid.Must(uuid.NewV7()).String()
	slog.Debug("compiling statement",
		"compilation_id", id,
		"dialect", ctx.Dialect,
		"partition", ctx.PartitionColumns,
		"select_items", len(stmt.Select))

	d, err := dialect.Lookup(ctx.Dialect)
	if err != nil {
		return nil, err
	}

	rewritten, err := rewrite.Rewrite(stmt, ctx)
	if err != nil {
		return nil, err
	}
	sql, err := sqlgen.Emit(rewritten.Stmt, d)
	if err != nil {
		return nil, err
	}

	slog.Info("statement compiled",
		"compilation_id", id,
		"nested", rewritten.Stmt.Subquery(),
		"aliases", len(rewritten.Aliases))

	return &Result{
		ID:      id,
		SQL:     sql,
		Aliases: rewritten.Aliases,
		Stmt:    rewritten.Stmt,
		Nested:  rewritten.Stmt.Subquery(),
	}, nil
}

// ResolveFragment classifies and resolves a single window call and
// returns both the structured clause and its rendered OVER-clause text.
// Callers needing only the text use the string; the rewriter consumes the
// structured form.
func ResolveFragment(call *windowir.Call, ctx windowir.QueryContext) (windowir.Clause, string, error) {
	spec, err := winspec.Classify(call.Func)
	if err != nil {
		return windowir.Clause{}, "", err
	}
	res, err := clause.Resolve(call, spec, ctx)
	if err != nil {
		return windowir.Clause{}, "", err
	}
	d, err := dialect.Lookup(ctx.Dialect)
	if err != nil {
		return windowir.Clause{}, "", err
	}
	text, err := sqlgen.RenderExpr(&windowir.Windowed{
		SQLName: spec.SQLName,
		Args:    res.Args,
		Clause:  res.Clause,
	}, d)
	if err != nil {
		return windowir.Clause{}, "", err
	}
	return res.Clause, text, nil
}
