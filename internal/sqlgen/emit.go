// Package sqlgen renders resolved statements and expressions as SQL text.
//
// This layer makes no decisions: classification, clause resolution, and
// subquery placement all happen below it, and by the time a statement
// arrives here every window call has been replaced by a resolved Windowed
// node. Identifier quoting follows the target dialect descriptor.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/overql/overql/internal/dialect"
	"github.com/overql/overql/internal/windowir"
)

// Emit renders a statement as a SQL SELECT. A statement whose FROM is a
// subquery renders as "SELECT ... FROM (inner) AS tmp WHERE ..."; a flat
// statement renders without nesting.
func Emit(stmt *windowir.Statement, d dialect.Dialect) (string, error) {
	if stmt == nil {
		return "", fmt.Errorf("cannot emit nil statement")
	}

	list, err := selectList(stmt, d)
	if err != nil {
		return "", err
	}

	var from string
	switch {
	case stmt.From.Sub != nil:
		inner, err := Emit(stmt.From.Sub, d)
		if err != nil {
			return "", err
		}
		alias := stmt.From.Alias
		if alias == "" {
			alias = "tmp"
		}
		from = "(" + inner + ") AS " + d.QuoteIdent(alias)
	case stmt.From.Table != "":
		from = d.QuoteIdent(stmt.From.Table)
	default:
		return "", fmt.Errorf("statement has no FROM relation")
	}

	sql := "SELECT " + list + " FROM " + from
	if stmt.Where != nil {
		cond, err := RenderExpr(stmt.Where, d)
		if err != nil {
			return "", err
		}
		sql += " WHERE " + cond
	}
	return sql, nil
}

func selectList(stmt *windowir.Statement, d dialect.Dialect) (string, error) {
	var parts []string
	if stmt.Star {
		parts = append(parts, "*")
	}
	for _, it := range stmt.Select {
		rendered, err := RenderExpr(it.Expr, d)
		if err != nil {
			return "", err
		}
		if it.Alias != "" {
			rendered += " AS " + d.QuoteIdent(it.Alias)
		}
		parts = append(parts, rendered)
	}
	if len(parts) == 0 {
		parts = append(parts, "*")
	}
	return strings.Join(parts, ", "), nil
}

// sqlOps maps IR operators to SQL spellings. Operators absent from the
// map pass through unchanged.
var sqlOps = map[string]string{
	"==": "=",
	"!=": "<>",
	"&&": "AND",
	"||": "OR",
}

// RenderExpr renders one expression subtree. An unresolved Call reaching
// this layer is a programming error in the caller, not a user fault.
func RenderExpr(e windowir.Expr, d dialect.Dialect) (string, error) {
	switch x := e.(type) {
	case *windowir.Column:
		if x.Name == "*" {
			return "*", nil
		}
		return d.QuoteIdent(x.Name), nil
	case *windowir.Literal:
		return renderLiteral(x.Value), nil
	case *windowir.BinaryOp:
		left, err := renderOperand(x.Left, d)
		if err != nil {
			return "", err
		}
		right, err := renderOperand(x.Right, d)
		if err != nil {
			return "", err
		}
		op := x.Op
		if mapped, ok := sqlOps[op]; ok {
			op = mapped
		}
		return left + " " + op + " " + right, nil
	case *windowir.Windowed:
		return renderWindowed(x, d)
	case *windowir.Desc:
		return "", fmt.Errorf("desc() marker outside an ordering position: %s", windowir.String(x))
	case *windowir.Call:
		return "", fmt.Errorf("unresolved window call %q reached the emitter", x.Func)
	default:
		return "", fmt.Errorf("unexpected expression node %T", e)
	}
}

// renderOperand parenthesizes nested operations so emitted precedence
// matches tree structure.
func renderOperand(e windowir.Expr, d dialect.Dialect) (string, error) {
	s, err := RenderExpr(e, d)
	if err != nil {
		return "", err
	}
	if _, ok := e.(*windowir.BinaryOp); ok {
		return "(" + s + ")", nil
	}
	return s, nil
}

func renderLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// renderWindowed renders "<fn>(<args>) OVER (<partition> <order> <frame>)".
func renderWindowed(w *windowir.Windowed, d dialect.Dialect) (string, error) {
	args := make([]string, 0, len(w.Args))
	for _, a := range w.Args {
		s, err := RenderExpr(a, d)
		if err != nil {
			return "", err
		}
		args = append(args, s)
	}

	over, err := RenderClause(w.Clause, d)
	if err != nil {
		return "", err
	}
	return w.SQLName + "(" + strings.Join(args, ", ") + ") OVER (" + over + ")", nil
}

// RenderClause renders the inside of an OVER (...) clause.
func RenderClause(c windowir.Clause, d dialect.Dialect) (string, error) {
	var parts []string
	if len(c.PartitionBy) > 0 {
		cols := make([]string, 0, len(c.PartitionBy))
		for _, col := range c.PartitionBy {
			cols = append(cols, d.QuoteIdent(col))
		}
		parts = append(parts, "PARTITION BY "+strings.Join(cols, ", "))
	}
	if len(c.OrderBy) > 0 {
		keys := make([]string, 0, len(c.OrderBy))
		for _, k := range c.OrderBy {
			s, err := RenderExpr(k.Expr, d)
			if err != nil {
				return "", err
			}
			if k.Descending {
				s += " DESC"
			}
			keys = append(keys, s)
		}
		parts = append(parts, "ORDER BY "+strings.Join(keys, ", "))
	}
	if c.Frame != nil {
		parts = append(parts, c.Frame.SQL())
	}
	return strings.Join(parts, " "), nil
}
