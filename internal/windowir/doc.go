// Package windowir provides the intermediate representation for overql's
// window-expression compiler.
//
// The IR sits between the surface-syntax parser and the SQL backend:
//
//	[expression parser] → [window IR] → [clause resolver] → [SQL emitter]
//
// It holds three families of values:
//
//   - Expr: the scalar/window expression tree produced by the parser
//     collaborator (Column, Literal, Call, BinaryOp, Desc).
//   - QueryContext and Statement: the per-statement compilation inputs —
//     partition columns, default ordering, the select list, and the
//     optional filter predicate.
//   - Clause and Frame: the resolved PARTITION BY / ORDER BY / frame
//     triple attached to a window-function call.
//
// SEALED INTERFACE:
//
// Expr is a sealed interface using the marker method pattern. Only types
// in this package implement it, which makes type switches in the resolver,
// rewriter, and emitter exhaustive:
//
//	switch e := expr.(type) {
//	case *Column:
//	case *Literal:
//	case *Call:
//	case *BinaryOp:
//	case *Desc:
//	case *Windowed:
//	default:
//	    // Impossible - compiler knows all Expr types
//	}
//
// IMMUTABILITY:
//
// QueryContext is a value snapshot: grouping or ordering changes upstream
// derive a new context (WithPartition, WithOrder) rather than mutating the
// old one, so each statement compiles against its own frozen view. Expr
// trees are exclusively owned by their statement; nothing in this package
// shares or cycles nodes.
package windowir
