package windowir

import (
	"fmt"
	"strings"
)

// Expr represents a node in a scalar or window expression tree.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the resolver, rewriter, and emitter.
//
// Expr types:
//   - Column: a bare column reference
//   - Literal: a constant value (string, int64, float64, bool, nil)
//   - Call: a function call, possibly a window function
//   - BinaryOp: an infix operation over two subtrees
//   - Desc: descending-order intent around an inner expression
//   - Windowed: a resolved window application (rewriter output only)
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Column references a column of the statement's relation by name.
type Column struct {
	Name string
}

func (*Column) exprNode() {}

// Literal holds a constant value. Values are restricted to string, int64,
// float64, bool, and nil; the parser collaborator is responsible for
// producing only these.
type Literal struct {
	Value any
}

func (*Literal) exprNode() {}

// Call is a function application. Func is the surface-level function name
// (e.g. "min_rank", "cummean", "lead"); whether it names a window function
// is decided by the classifier, not here.
//
// OrderBy carries an explicit per-call ordering override. The original
// surface syntax established this ordering through non-standard evaluation
// tricks; in the IR it is an ordinary field populated by the parser - no
// hidden lexical capture.
type Call struct {
	Func    string
	Args    []Expr
	OrderBy []SortKey // explicit order override, nil when absent
}

func (*Call) exprNode() {}

// BinaryOp applies an infix operator to two subtrees. Op is one of
// ==, !=, <, <=, >, >=, +, -, *, /, && and ||; the emitter maps these to
// the dialect's SQL spellings.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}

// Desc marks descending intent around an inner expression. It appears as
// an argument of ranking calls ("rank(desc(G))") and inside SortKey lists.
type Desc struct {
	Inner Expr
}

func (*Desc) exprNode() {}

// Windowed is a resolved window-function application: the SQL function
// spelling, the argument list left after ordering-key consumption, and
// the resolved clause. It is produced by the query rewriter, never by the
// parser, and doubles as the promoted-column marker the rewriter keys its
// idempotence check on.
type Windowed struct {
	SQLName string
	Args    []Expr
	Clause  Clause
}

func (*Windowed) exprNode() {}

// SortKey is one (expression, direction) element of an ORDER BY list.
type SortKey struct {
	Expr       Expr
	Descending bool
}

// Equal reports structural equality of two expression trees: same node
// types, same names and values, same argument lists, same order overrides.
// The rewriter's sharing rule ("identical call computed once") is defined
// in terms of this relation.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Column:
		y, ok := b.(*Column)
		return ok && x.Name == y.Name
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Value == y.Value
	case *Desc:
		y, ok := b.(*Desc)
		return ok && Equal(x.Inner, y.Inner)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Func != y.Func || len(x.Args) != len(y.Args) || len(x.OrderBy) != len(y.OrderBy) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		for i := range x.OrderBy {
			if x.OrderBy[i].Descending != y.OrderBy[i].Descending ||
				!Equal(x.OrderBy[i].Expr, y.OrderBy[i].Expr) {
				return false
			}
		}
		return true
	case *Windowed:
		y, ok := b.(*Windowed)
		if !ok || x.SQLName != y.SQLName || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return equalClause(x.Clause, y.Clause)
	default:
		return false
	}
}

func equalClause(a, b Clause) bool {
	if !a.SamePartition(b) || len(a.OrderBy) != len(b.OrderBy) {
		return false
	}
	for i := range a.OrderBy {
		if a.OrderBy[i].Descending != b.OrderBy[i].Descending ||
			!Equal(a.OrderBy[i].Expr, b.OrderBy[i].Expr) {
			return false
		}
	}
	if (a.Frame == nil) != (b.Frame == nil) {
		return false
	}
	return a.Frame == nil || *a.Frame == *b.Frame
}

// String renders an expression in the surface syntax, for diagnostics and
// log output. This is not SQL; the emitter owns SQL rendering.
func String(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case *Column:
		return x.Name
	case *Literal:
		if s, ok := x.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		if x.Value == nil {
			return "NULL"
		}
		return fmt.Sprintf("%v", x.Value)
	case *Desc:
		return "desc(" + String(x.Inner) + ")"
	case *BinaryOp:
		return String(x.Left) + " " + x.Op + " " + String(x.Right)
	case *Call:
		args := make([]string, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, String(a))
		}
		s := x.Func + "(" + strings.Join(args, ", ") + ")"
		if len(x.OrderBy) > 0 {
			keys := make([]string, 0, len(x.OrderBy))
			for _, k := range x.OrderBy {
				if k.Descending {
					keys = append(keys, "desc("+String(k.Expr)+")")
				} else {
					keys = append(keys, String(k.Expr))
				}
			}
			s += " order_by(" + strings.Join(keys, ", ") + ")"
		}
		return s
	case *Windowed:
		args := make([]string, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, String(a))
		}
		return x.SQLName + "(" + strings.Join(args, ", ") + ") OVER (" + x.Clause.describe() + ")"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

// Walk visits every node of an expression tree in depth-first order,
// including order-override keys. The visit function returning false stops
// descent into that node's children.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch x := e.(type) {
	case *Desc:
		Walk(x.Inner, visit)
	case *BinaryOp:
		Walk(x.Left, visit)
		Walk(x.Right, visit)
	case *Call:
		for _, a := range x.Args {
			Walk(a, visit)
		}
		for _, k := range x.OrderBy {
			Walk(k.Expr, visit)
		}
	case *Windowed:
		for _, a := range x.Args {
			Walk(a, visit)
		}
	}
}
