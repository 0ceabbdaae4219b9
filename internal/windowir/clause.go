package windowir

import (
	"fmt"
	"strings"
)

// BoundKind identifies a window frame boundary.
type BoundKind int

const (
	UnboundedPreceding BoundKind = iota
	Preceding
	CurrentRow
	Following
	UnboundedFollowing
)

// String returns the SQL spelling of the bound kind, without an offset.
func (k BoundKind) String() string {
	switch k {
	case UnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case Preceding:
		return "PRECEDING"
	case CurrentRow:
		return "CURRENT ROW"
	case Following:
		return "FOLLOWING"
	case UnboundedFollowing:
		return "UNBOUNDED FOLLOWING"
	default:
		return fmt.Sprintf("BoundKind(%d)", int(k))
	}
}

// FrameBound is a single frame boundary. Offset is meaningful only for
// Preceding and Following.
type FrameBound struct {
	Kind   BoundKind
	Offset int
}

// SQL returns the boundary's SQL text ("UNBOUNDED PRECEDING", "3 FOLLOWING").
func (b FrameBound) SQL() string {
	switch b.Kind {
	case Preceding, Following:
		return fmt.Sprintf("%d %s", b.Offset, b.Kind)
	default:
		return b.Kind.String()
	}
}

// Frame is a ROWS BETWEEN start AND end clause.
type Frame struct {
	Start FrameBound
	End   FrameBound
}

// SQL returns the frame's SQL text.
func (f Frame) SQL() string {
	return "ROWS BETWEEN " + f.Start.SQL() + " AND " + f.End.SQL()
}

// Clause is the resolved window specification for one call: the partition
// columns, the effective ordering, and the optional frame. Ranking and
// offset functions carry no frame (a frame is meaningless for them).
type Clause struct {
	PartitionBy []string
	OrderBy     []SortKey
	Frame       *Frame
}

// SamePartition reports whether two clauses partition identically.
// The rewriter uses this to enforce the single-partition-per-statement
// rule.
func (c Clause) SamePartition(o Clause) bool {
	if len(c.PartitionBy) != len(o.PartitionBy) {
		return false
	}
	for i := range c.PartitionBy {
		if c.PartitionBy[i] != o.PartitionBy[i] {
			return false
		}
	}
	return true
}

// describe renders the clause for diagnostics (not SQL; identifiers are
// unquoted).
func (c Clause) describe() string {
	var parts []string
	if len(c.PartitionBy) > 0 {
		parts = append(parts, "PARTITION BY "+strings.Join(c.PartitionBy, ", "))
	}
	if len(c.OrderBy) > 0 {
		keys := make([]string, 0, len(c.OrderBy))
		for _, k := range c.OrderBy {
			s := String(k.Expr)
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
	return strings.Join(parts, " ")
}

// String implements fmt.Stringer for log and error output.
func (c Clause) String() string { return c.describe() }
