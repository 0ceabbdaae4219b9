package windowir

// SelectItem is one aliased column of a statement's select list.
type SelectItem struct {
	Alias string
	Expr  Expr
}

// Relation is a statement's FROM source: either a named table or a
// subquery (exactly one of Table / Sub is set). Alias names the subquery
// in the outer statement's scope.
type Relation struct {
	Table string
	Sub   *Statement
	Alias string
}

// Statement is the unit the query rewriter consumes: a mutate/filter step
// lowered to a select list, a source relation, and an optional predicate.
//
// Star prepends "*" to the rendered select list; a statement with Star
// set and no items selects every source column. The rewriter builds inner
// selects as Star plus one promoted column per distinct window call, so
// the outer statement can reference both base columns and window aliases.
//
// A rewritten statement is an outer Statement whose From.Sub holds the
// inner select; the outer predicate references only aliases present in
// the inner select list.
type Statement struct {
	Star   bool
	Select []SelectItem
	From   Relation
	Where  Expr
}

// Subquery reports whether the statement wraps an inner select.
func (s *Statement) Subquery() bool {
	return s.From.Sub != nil
}

// HasAlias reports whether the select list contains the given alias.
func (s *Statement) HasAlias(alias string) bool {
	for _, it := range s.Select {
		if it.Alias == alias {
			return true
		}
	}
	return false
}

// Promoted reports whether any select item is a promoted window column
// (its expression is a resolved Windowed node). The rewriter treats a
// statement whose inner select is promoted as already rewritten.
func (s *Statement) Promoted() bool {
	for _, it := range s.Select {
		if _, ok := it.Expr.(*Windowed); ok {
			return true
		}
	}
	return false
}
