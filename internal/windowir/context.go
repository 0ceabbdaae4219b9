package windowir

// OrderKey is one (column, direction) element of a context-level default
// ordering. Unlike SortKey it names a plain column: multi-variable or
// computed default orderings are not supported at the context level.
type OrderKey struct {
	Column     string
	Descending bool
}

// QueryContext is the immutable per-statement compilation context: the
// partition (grouping) columns, the default ordering established by a
// prior explicit arrange step, and the target dialect name.
//
// A context is created once per statement and never mutated afterwards.
// Upstream grouping or ordering changes derive a new context via
// WithPartition / WithOrder, so concurrent compilations never observe
// each other's state.
type QueryContext struct {
	PartitionColumns []string
	DefaultOrder     []OrderKey
	Dialect          string
}

// NewContext returns a context with no partition, no default order, and
// the given dialect.
func NewContext(dialect string) QueryContext {
	return QueryContext{Dialect: dialect}
}

// WithPartition derives a new context with the given partition columns.
// The receiver is unchanged.
func (c QueryContext) WithPartition(cols ...string) QueryContext {
	d := c
	d.PartitionColumns = append([]string(nil), cols...)
	return d
}

// WithOrder derives a new context with the given default ordering,
// replacing any prior one ("last established ordering wins").
func (c QueryContext) WithOrder(keys ...OrderKey) QueryContext {
	d := c
	d.DefaultOrder = append([]OrderKey(nil), keys...)
	return d
}

// Windowed reports whether the context establishes any window scope at
// all: a partition or a default ordering. Recycled aggregates compiled
// against a non-windowed context are plain aggregation, which this
// compiler rejects.
func (c QueryContext) Windowed() bool {
	return len(c.PartitionColumns) > 0 || len(c.DefaultOrder) > 0
}
