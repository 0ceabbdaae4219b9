// Package rewrite restructures statements whose filter predicate
// references window functions.
//
// SQL forbids window functions in WHERE and HAVING, so a predicate like
// "min_rank(G) == 1" cannot compile flat: the window computation moves
// into an inner select under a generated alias and the outer predicate
// filters on that alias. Statements without a windowed predicate are left
// flat - no gratuitous nesting - with their select-list window calls
// resolved in place.
package rewrite

import (
	"fmt"

	"github.com/overql/overql/internal/clause"
	"github.com/overql/overql/internal/diag"
	"github.com/overql/overql/internal/windowir"
	"github.com/overql/overql/internal/winspec"
)

// Result is the rewriter output: the (possibly nested) statement and the
// generated aliases, keyed by alias with the surface-syntax source
// expression as value so callers can map result columns back to the
// expressions that produced them.
type Result struct {
	Stmt    *windowir.Statement
	Aliases map[string]string
}

// innerAlias names the inner select in the outer statement's scope.
const innerAlias = "tmp"

// Rewrite resolves every window call in the statement and, when a window
// function appears in the predicate, splits the statement into an
// inner/outer subquery pair.
//
// Rewrite is idempotent: a statement whose inner select already carries
// promoted window columns is returned unchanged.
func Rewrite(stmt *windowir.Statement, ctx windowir.QueryContext) (*Result, error) {
	if stmt == nil {
		return nil, fmt.Errorf("cannot rewrite nil statement")
	}
	if stmt.Subquery() && stmt.From.Sub.Promoted() {
		return &Result{Stmt: stmt, Aliases: map[string]string{}}, nil
	}

	if err := checkNesting(stmt); err != nil {
		return nil, err
	}

	rw := &rewriter{
		ctx:     ctx,
		aliases: map[string]string{},
		counts:  map[string]int{},
	}
	var out *windowir.Statement
	var err error
	if hasWindowCall(stmt.Where) {
		out, err = rw.split(stmt)
	} else {
		out, err = rw.resolveFlat(stmt)
	}
	if err != nil {
		return nil, err
	}
	if err := clause.VerifyPartitions(rw.clauses); err != nil {
		return nil, err
	}
	return &Result{Stmt: out, Aliases: rw.aliases}, nil
}

type rewriter struct {
	ctx     windowir.QueryContext
	aliases map[string]string // alias → surface expression
	counts  map[string]int    // per-function alias counters

	promoted []promotion
	clauses  []windowir.Clause // every resolution, for the partition check
}

// promotion is one distinct window call lifted into the inner select.
type promotion struct {
	call  *windowir.Call
	node  *windowir.Windowed
	alias string
}

// resolveFlat resolves select-list window calls in place; the statement
// keeps its shape.
func (rw *rewriter) resolveFlat(stmt *windowir.Statement) (*windowir.Statement, error) {
	out := *stmt
	out.Select = make([]windowir.SelectItem, len(stmt.Select))
	for i, it := range stmt.Select {
		e, err := rw.transform(it.Expr, false)
		if err != nil {
			return nil, err
		}
		out.Select[i] = windowir.SelectItem{Alias: it.Alias, Expr: e}
	}
	return &out, nil
}

// split builds the inner/outer pair: inner selects every base column plus
// one aliased window column per distinct call; outer re-derives the
// original select list and predicate over the inner aliases.
func (rw *rewriter) split(stmt *windowir.Statement) (*windowir.Statement, error) {
	outer := &windowir.Statement{Star: stmt.Star || len(stmt.Select) == 0}

	outer.Select = make([]windowir.SelectItem, len(stmt.Select))
	for i, it := range stmt.Select {
		e, err := rw.transform(it.Expr, true)
		if err != nil {
			return nil, err
		}
		outer.Select[i] = windowir.SelectItem{Alias: it.Alias, Expr: e}
	}
	where, err := rw.transform(stmt.Where, true)
	if err != nil {
		return nil, err
	}
	outer.Where = where

	inner := &windowir.Statement{Star: true, From: stmt.From}
	for _, p := range rw.promoted {
		inner.Select = append(inner.Select, windowir.SelectItem{Alias: p.alias, Expr: p.node})
	}
	outer.From = windowir.Relation{Sub: inner, Alias: innerAlias}
	return outer, nil
}

// transform walks an expression bottom-up, resolving window calls. With
// promote set, each distinct call becomes (or reuses) an inner-select
// column and the returned subtree is a reference to its alias; identical
// calls share one promotion, never a duplicate computation.
func (rw *rewriter) transform(e windowir.Expr, promote bool) (windowir.Expr, error) {
	switch x := e.(type) {
	case nil:
		return nil, nil
	case *windowir.Column, *windowir.Literal, *windowir.Windowed:
		return e, nil
	case *windowir.Desc:
		inner, err := rw.transform(x.Inner, promote)
		if err != nil {
			return nil, err
		}
		return &windowir.Desc{Inner: inner}, nil
	case *windowir.BinaryOp:
		left, err := rw.transform(x.Left, promote)
		if err != nil {
			return nil, err
		}
		right, err := rw.transform(x.Right, promote)
		if err != nil {
			return nil, err
		}
		return &windowir.BinaryOp{Op: x.Op, Left: left, Right: right}, nil
	case *windowir.Call:
		node, err := rw.resolve(x)
		if err != nil {
			return nil, err
		}
		if !promote {
			return node, nil
		}
		return &windowir.Column{Name: rw.promote(x, node)}, nil
	default:
		return nil, fmt.Errorf("unexpected expression node %T", e)
	}
}

// resolve classifies and resolves one window call.
func (rw *rewriter) resolve(call *windowir.Call) (*windowir.Windowed, error) {
	spec, err := winspec.Classify(call.Func)
	if err != nil {
		return nil, err
	}
	res, err := clause.Resolve(call, spec, rw.ctx)
	if err != nil {
		return nil, err
	}
	rw.clauses = append(rw.clauses, res.Clause)
	return &windowir.Windowed{SQLName: spec.SQLName, Args: res.Args, Clause: res.Clause}, nil
}

// promote returns the alias for a window call, creating the inner-select
// column on first sight of a structurally identical call.
func (rw *rewriter) promote(call *windowir.Call, node *windowir.Windowed) string {
	for _, p := range rw.promoted {
		if windowir.Equal(p.call, call) {
			return p.alias
		}
	}
	rw.counts[call.Func]++
	alias := fmt.Sprintf("%s_%d", call.Func, rw.counts[call.Func])
	rw.promoted = append(rw.promoted, promotion{call: call, node: node, alias: alias})
	rw.aliases[alias] = windowir.String(call)
	return alias
}

// checkNesting rejects window calls inside another window call's
// arguments or ordering keys; the target dialects cannot evaluate them.
// Calls are classified first, so an unrecognized name fails as
// UNKNOWN_FUNCTION rather than as a nesting violation.
func checkNesting(stmt *windowir.Statement) error {
	var err error
	check := func(root windowir.Expr) {
		windowir.Walk(root, func(e windowir.Expr) bool {
			outerCall, ok := e.(*windowir.Call)
			if !ok {
				return true
			}
			if _, cerr := winspec.Classify(outerCall.Func); cerr != nil {
				if err == nil {
					err = cerr
				}
				return false
			}
			pos := 0
			for _, arg := range outerCall.Args {
				pos++
				p := pos
				windowir.Walk(arg, func(sub windowir.Expr) bool {
					inner, ok := sub.(*windowir.Call)
					if !ok || err != nil {
						return err == nil
					}
					if _, cerr := winspec.Classify(inner.Func); cerr != nil {
						err = cerr
						return false
					}
					err = &diag.Error{
						Code:     diag.CodeUnsupportedNesting,
						Message:  "window function call nested inside " + outerCall.Func,
						Function: inner.Func,
						ArgPos:   p,
						Fragment: windowir.String(outerCall),
					}
					return false
				})
			}
			for _, k := range outerCall.OrderBy {
				windowir.Walk(k.Expr, func(sub windowir.Expr) bool {
					inner, ok := sub.(*windowir.Call)
					if !ok || err != nil {
						return err == nil
					}
					if _, cerr := winspec.Classify(inner.Func); cerr != nil {
						err = cerr
						return false
					}
					err = &diag.Error{
						Code:     diag.CodeUnsupportedNesting,
						Message:  "window function call nested inside order_by of " + outerCall.Func,
						Function: inner.Func,
						Fragment: windowir.String(outerCall),
					}
					return false
				})
			}
			// Do not descend again; nested calls are already rejected.
			return false
		})
	}
	for _, it := range stmt.Select {
		check(it.Expr)
	}
	check(stmt.Where)
	return err
}

// hasWindowCall reports whether the expression contains any Call node.
// Every recognized call is a window function; unknown names fail later in
// classification.
func hasWindowCall(e windowir.Expr) bool {
	found := false
	windowir.Walk(e, func(sub windowir.Expr) bool {
		if _, ok := sub.(*windowir.Call); ok {
			found = true
			return false
		}
		return true
	})
	return found
}
