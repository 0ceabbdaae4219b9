package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overql/overql/internal/diag"
	"github.com/overql/overql/internal/windowir"
)

func battingCtx() windowir.QueryContext {
	return windowir.NewContext("sqlite").
		WithPartition("playerID").
		WithOrder(windowir.OrderKey{Column: "yearID"})
}

func minRank() *windowir.Call {
	return &windowir.Call{Func: "min_rank", Args: []windowir.Expr{&windowir.Column{Name: "G"}}}
}

func rankFilter() windowir.Expr {
	return &windowir.BinaryOp{Op: "==", Left: minRank(), Right: &windowir.Literal{Value: int64(1)}}
}

func TestRewrite_FilterPredicateForcesSubquery(t *testing.T) {
	stmt := &windowir.Statement{
		Star:  true,
		From:  windowir.Relation{Table: "batting"},
		Where: rankFilter(),
	}

	res, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)

	out := res.Stmt
	require.True(t, out.Subquery(), "window predicate must move into a subquery")
	assert.Equal(t, "tmp", out.From.Alias)

	inner := out.From.Sub
	assert.True(t, inner.Star)
	assert.Nil(t, inner.Where, "inner select carries no predicate")
	require.Len(t, inner.Select, 1)
	assert.Equal(t, "min_rank_1", inner.Select[0].Alias)

	promoted, ok := inner.Select[0].Expr.(*windowir.Windowed)
	require.True(t, ok)
	assert.Equal(t, "RANK", promoted.SQLName)
	assert.Equal(t, []string{"playerID"}, promoted.Clause.PartitionBy)

	// Outer predicate references the inner alias only.
	cond, ok := out.Where.(*windowir.BinaryOp)
	require.True(t, ok)
	ref, ok := cond.Left.(*windowir.Column)
	require.True(t, ok)
	assert.Equal(t, "min_rank_1", ref.Name)
	assert.True(t, inner.HasAlias(ref.Name), "outer predicate must reference inner columns")

	assert.Equal(t, map[string]string{"min_rank_1": "min_rank(G)"}, res.Aliases)
}

func TestRewrite_NoPredicateNoNesting(t *testing.T) {
	// Window functions only in the select list: the statement stays
	// flat, with the call resolved in place.
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{
			{Alias: "year_rank", Expr: minRank()},
		},
		From: windowir.Relation{Table: "batting"},
	}

	res, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)

	out := res.Stmt
	assert.False(t, out.Subquery(), "no subquery when none is needed")
	require.Len(t, out.Select, 1)
	w, ok := out.Select[0].Expr.(*windowir.Windowed)
	require.True(t, ok)
	assert.Equal(t, "RANK", w.SQLName)
	assert.Empty(t, res.Aliases)
}

func TestRewrite_PlainPredicateNoNesting(t *testing.T) {
	stmt := &windowir.Statement{
		Star: true,
		From: windowir.Relation{Table: "batting"},
		Where: &windowir.BinaryOp{
			Op:    ">",
			Left:  &windowir.Column{Name: "G"},
			Right: &windowir.Literal{Value: int64(100)},
		},
	}

	res, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)
	assert.False(t, res.Stmt.Subquery())
	assert.True(t, windowir.Equal(stmt.Where, res.Stmt.Where))
}

func TestRewrite_Idempotent(t *testing.T) {
	stmt := &windowir.Statement{
		Star:  true,
		From:  windowir.Relation{Table: "batting"},
		Where: rankFilter(),
	}

	first, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)

	second, err := Rewrite(first.Stmt, battingCtx())
	require.NoError(t, err)
	assert.Same(t, first.Stmt, second.Stmt, "re-applying must return the statement unchanged")
}

func TestRewrite_SharedCallComputedOnce(t *testing.T) {
	// The identical call in both select list and predicate yields one
	// inner column referenced from both outer positions.
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{
			{Alias: "year_rank", Expr: minRank()},
		},
		From:  windowir.Relation{Table: "batting"},
		Where: rankFilter(),
	}

	res, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)

	inner := res.Stmt.From.Sub
	require.NotNil(t, inner)
	require.Len(t, inner.Select, 1, "one promotion for both positions")
	assert.Equal(t, "min_rank_1", inner.Select[0].Alias)

	sel, ok := res.Stmt.Select[0].Expr.(*windowir.Column)
	require.True(t, ok)
	assert.Equal(t, "min_rank_1", sel.Name)
}

func TestRewrite_DistinctCallsGetDistinctAliases(t *testing.T) {
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{
			{Alias: "g_rank", Expr: minRank()},
			{Alias: "ab_rank", Expr: &windowir.Call{Func: "min_rank", Args: []windowir.Expr{&windowir.Column{Name: "AB"}}}},
		},
		From:  windowir.Relation{Table: "batting"},
		Where: rankFilter(),
	}

	res, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)

	inner := res.Stmt.From.Sub
	require.Len(t, inner.Select, 2)
	assert.Equal(t, "min_rank_1", inner.Select[0].Alias)
	assert.Equal(t, "min_rank_2", inner.Select[1].Alias)
	assert.Len(t, res.Aliases, 2)
}

func TestRewrite_WindowInsideExpression(t *testing.T) {
	// cumsum(G) / sum(G) in a filtered statement: both calls promote and
	// the outer select rebuilds the division over the aliases.
	ratio := &windowir.BinaryOp{
		Op:    "/",
		Left:  &windowir.Call{Func: "cumsum", Args: []windowir.Expr{&windowir.Column{Name: "G"}}},
		Right: &windowir.Call{Func: "sum", Args: []windowir.Expr{&windowir.Column{Name: "G"}}},
	}
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{
			{Alias: "share", Expr: ratio},
		},
		From:  windowir.Relation{Table: "batting"},
		Where: rankFilter(),
	}

	res, err := Rewrite(stmt, battingCtx())
	require.NoError(t, err)

	inner := res.Stmt.From.Sub
	require.Len(t, inner.Select, 3) // min_rank_1, cumsum_1, sum_1
	outerShare, ok := res.Stmt.Select[0].Expr.(*windowir.BinaryOp)
	require.True(t, ok)
	left, ok := outerShare.Left.(*windowir.Column)
	require.True(t, ok)
	assert.Equal(t, "cumsum_1", left.Name)
}

func TestRewrite_UnsupportedNesting(t *testing.T) {
	nested := &windowir.Call{
		Func: "cumsum",
		Args: []windowir.Expr{
			&windowir.Call{Func: "lag", Args: []windowir.Expr{&windowir.Column{Name: "G"}}},
		},
	}
	stmt := &windowir.Statement{
		Star:   true,
		Select: []windowir.SelectItem{{Alias: "x", Expr: nested}},
		From:   windowir.Relation{Table: "batting"},
	}

	_, err := Rewrite(stmt, battingCtx())
	require.Error(t, err)
	assert.True(t, diag.IsUnsupportedNesting(err))

	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "lag", de.Function)
	assert.Equal(t, 1, de.ArgPos)
}

func TestRewrite_UnknownOuterCallNamedNotNesting(t *testing.T) {
	// frobnicate(lag(G)): the real problem is the unrecognized outer
	// name, not the nested window call.
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{{
			Alias: "x",
			Expr: &windowir.Call{
				Func: "frobnicate",
				Args: []windowir.Expr{
					&windowir.Call{Func: "lag", Args: []windowir.Expr{&windowir.Column{Name: "G"}}},
				},
			},
		}},
		From: windowir.Relation{Table: "batting"},
	}

	_, err := Rewrite(stmt, battingCtx())
	require.Error(t, err)
	assert.True(t, diag.IsUnknownFunction(err))

	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "frobnicate", de.Function)
}

func TestRewrite_UnknownInnerCallNamedNotNesting(t *testing.T) {
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{{
			Alias: "x",
			Expr: &windowir.Call{
				Func: "cumsum",
				Args: []windowir.Expr{
					&windowir.Call{Func: "frobnicate", Args: []windowir.Expr{&windowir.Column{Name: "G"}}},
				},
			},
		}},
		From: windowir.Relation{Table: "batting"},
	}

	_, err := Rewrite(stmt, battingCtx())
	require.Error(t, err)
	assert.True(t, diag.IsUnknownFunction(err))
}

func TestRewrite_UnknownFunctionFatal(t *testing.T) {
	stmt := &windowir.Statement{
		Star:   true,
		Select: []windowir.SelectItem{{Alias: "x", Expr: &windowir.Call{Func: "frobnicate"}}},
		From:   windowir.Relation{Table: "batting"},
	}

	_, err := Rewrite(stmt, battingCtx())
	require.Error(t, err)
	assert.True(t, diag.IsUnknownFunction(err))
}

func TestRewrite_MissingOrderPropagates(t *testing.T) {
	// Scenario: lead(G) with no context default order.
	ctx := windowir.NewContext("sqlite").WithPartition("playerID")
	stmt := &windowir.Statement{
		Star: true,
		Select: []windowir.SelectItem{
			{Alias: "next_g", Expr: &windowir.Call{Func: "lead", Args: []windowir.Expr{&windowir.Column{Name: "G"}}}},
		},
		From: windowir.Relation{Table: "batting"},
	}

	_, err := Rewrite(stmt, ctx)
	require.Error(t, err)
	assert.True(t, diag.IsMissingOrder(err))
}
