package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overql/overql/internal/windowir"
)

func TestExpr_CallWithComparison(t *testing.T) {
	e, err := Expr("min_rank(G) == 1")
	require.NoError(t, err)

	want := &windowir.BinaryOp{
		Op:    "==",
		Left:  &windowir.Call{Func: "min_rank", Args: []windowir.Expr{&windowir.Column{Name: "G"}}},
		Right: &windowir.Literal{Value: int64(1)},
	}
	assert.True(t, windowir.Equal(want, e), "got %s", windowir.String(e))
}

func TestExpr_OrderByArgumentBecomesOverride(t *testing.T) {
	e, err := Expr("lead(G, 2, order_by(yearID, desc(stint)))")
	require.NoError(t, err)

	call, ok := e.(*windowir.Call)
	require.True(t, ok)
	assert.Equal(t, "lead", call.Func)
	require.Len(t, call.Args, 2, "order_by argument must be stripped from args")
	require.Len(t, call.OrderBy, 2)
	assert.True(t, windowir.Equal(&windowir.Column{Name: "yearID"}, call.OrderBy[0].Expr))
	assert.False(t, call.OrderBy[0].Descending)
	assert.True(t, windowir.Equal(&windowir.Column{Name: "stint"}, call.OrderBy[1].Expr))
	assert.True(t, call.OrderBy[1].Descending)
}

func TestExpr_DescMarker(t *testing.T) {
	e, err := Expr("rank(desc(G))")
	require.NoError(t, err)

	call, ok := e.(*windowir.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	d, ok := call.Args[0].(*windowir.Desc)
	require.True(t, ok)
	assert.True(t, windowir.Equal(&windowir.Column{Name: "G"}, d.Inner))
}

func TestExpr_Precedence(t *testing.T) {
	e, err := Expr("G + AB * 2 > 10 && H < 5")
	require.NoError(t, err)

	and, ok := e.(*windowir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "&&", and.Op)

	gt, ok := and.Left.(*windowir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ">", gt.Op)

	plus, ok := gt.Left.(*windowir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", plus.Op)
	times, ok := plus.Right.(*windowir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", times.Op)
}

func TestExpr_Parentheses(t *testing.T) {
	e, err := Expr("(G + AB) * 2")
	require.NoError(t, err)

	times, ok := e.(*windowir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", times.Op)
	plus, ok := times.Left.(*windowir.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", plus.Op)
}

func TestExpr_Literals(t *testing.T) {
	testCases := []struct {
		input string
		want  any
	}{
		{"42", int64(42)},
		{"2.5", 2.5},
		{"'O''Neil'", "O'Neil"},
		{"true", true},
		{"false", false},
		{"null", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			e, err := Expr(tc.input)
			require.NoError(t, err)
			lit, ok := e.(*windowir.Literal)
			require.True(t, ok)
			assert.Equal(t, tc.want, lit.Value)
		})
	}
}

func TestExpr_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"min_rank(",
		"G ==",
		"desc(a, b)",
		"'unterminated",
		"a $ b",
		"min_rank(G) extra",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Expr(input)
			assert.Error(t, err)
		})
	}
}

func TestSortKeys(t *testing.T) {
	keys, err := SortKeys("yearID, desc(G)")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.False(t, keys[0].Descending)
	assert.True(t, keys[1].Descending)
	assert.True(t, windowir.Equal(&windowir.Column{Name: "G"}, keys[1].Expr))
}
