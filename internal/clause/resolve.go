// Package clause resolves classified window-function calls into concrete
// PARTITION BY / ORDER BY / frame clauses.
//
// Resolution is a pure function over the call, its classifier spec, and
// the immutable statement context. The partition always comes from the
// context: function-level partition overrides are deliberately not
// supported, matching the modeled mutate/filter semantics rather than the
// full SQL standard.
package clause

import (
	"github.com/overql/overql/internal/diag"
	"github.com/overql/overql/internal/dialect"
	"github.com/overql/overql/internal/windowir"
	"github.com/overql/overql/internal/winspec"
)

// Resolution is the resolver output for one call: the structured clause
// and the argument list left to render inside the SQL function, after any
// ordering key has been consumed and, for ranking functions, column
// arguments dropped (their SQL forms take no value arguments).
type Resolution struct {
	Clause windowir.Clause
	Args   []windowir.Expr
}

// Resolve computes the window clause for a classified call under ctx.
//
// Ordering resolves from exactly one source, in priority order: a
// desc-wrapped first argument (FirstArgument functions only), the call's
// explicit order_by override, then the context default. An empty result
// for an order-requiring function is MISSING_ORDER - never a silently
// unordered window.
func Resolve(call *windowir.Call, spec winspec.Spec, ctx windowir.QueryContext) (Resolution, error) {
	d, err := dialect.Lookup(ctx.Dialect)
	if err != nil {
		return Resolution{}, err
	}

	if spec.Category == winspec.PlainAggregate {
		return Resolution{}, &diag.Error{
			Code:     diag.CodeNotAWindowContext,
			Message:  "plain aggregate must be handled by ordinary aggregation",
			Function: call.Func,
			Fragment: windowir.String(call),
		}
	}
	if spec.Category == winspec.RecycledAggregate && !ctx.Windowed() && len(call.OrderBy) == 0 {
		return Resolution{}, &diag.Error{
			Code:     diag.CodeNotAWindowContext,
			Message:  "aggregate used without any window scope",
			Function: call.Func,
			Fragment: windowir.String(call),
		}
	}

	res := Resolution{Args: call.Args}
	res.Clause.PartitionBy = ctx.PartitionColumns

	// Ordering source 1: desc-wrapped first argument.
	if spec.OrderSource == winspec.FirstArgument && len(call.Args) > 0 {
		if desc, ok := call.Args[0].(*windowir.Desc); ok {
			res.Clause.OrderBy = []windowir.SortKey{{Expr: desc.Inner, Descending: true}}
			res.Args = call.Args[1:]
		}
	}
	// Source 2: explicit order_by override on the call.
	if len(res.Clause.OrderBy) == 0 && len(call.OrderBy) > 0 {
		res.Clause.OrderBy = call.OrderBy
	}
	// Source 3: context default. Recycled aggregates skip it - their
	// frame spans the whole partition, so an inherited ordering would
	// only add noise to the generated SQL.
	if len(res.Clause.OrderBy) == 0 && spec.Category != winspec.RecycledAggregate {
		res.Clause.OrderBy = contextOrder(ctx)
	}
	if len(res.Clause.OrderBy) == 0 && spec.RequiresOrder {
		return Resolution{}, &diag.Error{
			Code:     diag.CodeMissingOrder,
			Message:  "window function requires an ordering and none was supplied or established",
			Function: call.Func,
			Fragment: windowir.String(call),
		}
	}

	if spec.Category == winspec.Ranking {
		res.Args = rankingArgs(res.Args)
	}

	frame, err := frameFor(call, spec)
	if err != nil {
		return Resolution{}, err
	}
	res.Clause.Frame = frame
	if frame != nil && !d.SupportsFrames {
		return Resolution{}, &diag.Error{
			Code:     diag.CodeUnsupportedFrame,
			Message:  "dialect " + d.Name + " does not support frame clauses",
			Function: call.Func,
		}
	}
	return res, nil
}

// frameFor selects the frame by category. Ranking and offset functions
// are frame-free.
func frameFor(call *windowir.Call, spec winspec.Spec) (*windowir.Frame, error) {
	switch spec.Category {
	case winspec.RecycledAggregate:
		return &windowir.Frame{
			Start: windowir.FrameBound{Kind: windowir.UnboundedPreceding},
			End:   windowir.FrameBound{Kind: windowir.UnboundedFollowing},
		}, nil
	case winspec.CumulativeAggregate:
		return &windowir.Frame{
			Start: windowir.FrameBound{Kind: windowir.UnboundedPreceding},
			End:   windowir.FrameBound{Kind: windowir.CurrentRow},
		}, nil
	case winspec.RollingAggregate:
		if spec.RollingBefore != spec.RollingAfter {
			return nil, &diag.Error{
				Code:     diag.CodeUnsupportedFrame,
				Message:  "asymmetric rolling half-widths are not supported",
				Function: call.Func,
			}
		}
		return &windowir.Frame{
			Start: windowir.FrameBound{Kind: windowir.Preceding, Offset: spec.RollingBefore},
			End:   windowir.FrameBound{Kind: windowir.Following, Offset: spec.RollingAfter},
		}, nil
	case winspec.Ranking, winspec.Offset:
		return nil, nil
	default:
		return nil, nil
	}
}

// rankingArgs keeps only literal arguments: SQL ranking functions take no
// value arguments, but NTILE's bucket count must survive.
func rankingArgs(args []windowir.Expr) []windowir.Expr {
	var kept []windowir.Expr
	for _, a := range args {
		if _, ok := a.(*windowir.Literal); ok {
			kept = append(kept, a)
		}
	}
	return kept
}

// VerifyPartitions enforces the single-partition-per-statement rule:
// every resolved clause in one statement must partition identically.
// Callers assembling clauses from more than one context use this before
// emission; the rewriter applies it to everything it resolves.
func VerifyPartitions(clauses []windowir.Clause) error {
	for i := 1; i < len(clauses); i++ {
		if !clauses[0].SamePartition(clauses[i]) {
			return &diag.Error{
				Code:    diag.CodeAmbiguousPartition,
				Message: "statement resolves multiple distinct partitions",
				Fragment: "PARTITION BY {" + joinCols(clauses[0].PartitionBy) + "} vs {" +
					joinCols(clauses[i].PartitionBy) + "}",
			}
		}
	}
	return nil
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

func contextOrder(ctx windowir.QueryContext) []windowir.SortKey {
	if len(ctx.DefaultOrder) == 0 {
		return nil
	}
	keys := make([]windowir.SortKey, 0, len(ctx.DefaultOrder))
	for _, k := range ctx.DefaultOrder {
		keys = append(keys, windowir.SortKey{
			Expr:       &windowir.Column{Name: k.Column},
			Descending: k.Descending,
		})
	}
	return keys
}
