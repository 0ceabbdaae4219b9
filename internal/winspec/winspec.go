// Package winspec classifies window-function names.
//
// The classifier is a fixed table mapping each recognized surface-level
// function name to its category (ranking, offset, cumulative, rolling,
// recycled/plain aggregate), its SQL spelling, and its ordering
// requirement. The table is process-wide read-only state: it is populated
// at init and by RegisterRolling before any compilation starts, after
// which unsynchronized concurrent reads are safe.
package winspec

import (
	"sort"
	"sync"

	"github.com/overql/overql/internal/diag"
)

// Category is the closed set of window-function categories. The clause
// resolver switches exhaustively over it, so adding a category is a
// compile-time-checked decision.
type Category int

const (
	Ranking Category = iota
	Offset
	CumulativeAggregate
	RollingAggregate
	RecycledAggregate
	PlainAggregate
)

// String returns the category name for diagnostics.
func (c Category) String() string {
	switch c {
	case Ranking:
		return "ranking"
	case Offset:
		return "offset"
	case CumulativeAggregate:
		return "cumulative"
	case RollingAggregate:
		return "rolling"
	case RecycledAggregate:
		return "recycled"
	case PlainAggregate:
		return "plain"
	default:
		return "unknown"
	}
}

// OrderSource identifies where a function's ordering is resolved from
// when the call carries no explicit order_by override.
type OrderSource int

const (
	// ContextOnly resolves ordering from the statement context's default
	// order.
	ContextOnly OrderSource = iota

	// FirstArgument resolves ordering from the call's first argument when
	// that argument is an ordering key (a desc-wrapped expression);
	// otherwise resolution falls through to the context default.
	FirstArgument

	// ExplicitOrderByArgument resolves ordering only from the call's
	// order_by override; the context default is still the fallback.
	ExplicitOrderByArgument
)

// Spec describes one classified window function.
type Spec struct {
	// Name is the surface-level function name ("min_rank", "cummean").
	Name string

	// Category determines clause shape: frame selection and ordering
	// requirements.
	Category Category

	// SQLName is the SQL function spelling ("RANK", "AVG"). For ranking
	// functions the emitter drops the surface arguments, since the SQL
	// forms take none (NTILE's bucket count excepted).
	SQLName string

	// RequiresOrder makes an empty resolved ordering a MISSING_ORDER
	// failure. True for ranking, offset, cumulative, and rolling
	// categories; false for recycled aggregates.
	RequiresOrder bool

	// OrderSource is the default ordering source for the function.
	OrderSource OrderSource

	// Rolling frame half-widths, rows before and after the current row.
	// Meaningful only for RollingAggregate.
	RollingBefore int
	RollingAfter  int
}

var (
	registerMu sync.Mutex
	table      = map[string]Spec{}
)

func add(s Spec) { table[s.Name] = s }

func init() {
	// Ranking functions. Ordering comes from a desc-wrapped first
	// argument when present, else the context default.
	for name, sqlName := range map[string]string{
		"row_number":   "ROW_NUMBER",
		"rank":         "RANK",
		"min_rank":     "RANK",
		"dense_rank":   "DENSE_RANK",
		"percent_rank": "PERCENT_RANK",
		"cume_dist":    "CUME_DIST",
		"ntile":        "NTILE",
	} {
		add(Spec{Name: name, Category: Ranking, SQLName: sqlName,
			RequiresOrder: true, OrderSource: FirstArgument})
	}

	// Offset functions. Arguments pass through to SQL; ordering comes
	// from the explicit order_by override or the context default.
	for name, sqlName := range map[string]string{
		"lead":        "LEAD",
		"lag":         "LAG",
		"nth_value":   "NTH_VALUE",
		"first_value": "FIRST_VALUE",
		"last_value":  "LAST_VALUE",
	} {
		add(Spec{Name: name, Category: Offset, SQLName: sqlName,
			RequiresOrder: true, OrderSource: ExplicitOrderByArgument})
	}

	// Cumulative aggregates. cumany/cumall reduce to running MAX/MIN over
	// their boolean argument.
	for name, sqlName := range map[string]string{
		"cumsum":  "SUM",
		"cummin":  "MIN",
		"cummax":  "MAX",
		"cummean": "AVG",
		"cumany":  "MAX",
		"cumall":  "MIN",
	} {
		add(Spec{Name: name, Category: CumulativeAggregate, SQLName: sqlName,
			RequiresOrder: true, OrderSource: ContextOnly})
	}

	// Recycled aggregates: ordinary aggregates whose single result is
	// broadcast over the partition. No ordering requirement.
	for name, sqlName := range map[string]string{
		"mean":       "AVG",
		"sum":        "SUM",
		"min":        "MIN",
		"max":        "MAX",
		"sd":         "STDDEV",
		"var":        "VARIANCE",
		"median":     "MEDIAN",
		"n":          "COUNT",
		"count":      "COUNT",
		"n_distinct": "COUNT",
	} {
		add(Spec{Name: name, Category: RecycledAggregate, SQLName: sqlName,
			OrderSource: ContextOnly})
	}

	// Stock rolling aggregates, symmetric one-row half-width. Callers
	// register wider or additional ones via RegisterRolling.
	mustRegisterRolling("roll_mean", "AVG", 1, 1)
	mustRegisterRolling("roll_sum", "SUM", 1, 1)
	mustRegisterRolling("roll_min", "MIN", 1, 1)
	mustRegisterRolling("roll_max", "MAX", 1, 1)
}

// Classify looks up the spec for a function name. Unknown names fail with
// UNKNOWN_FUNCTION; the failure is fatal for the statement being
// compiled, never retried.
func Classify(name string) (Spec, error) {
	s, ok := table[name]
	if !ok {
		return Spec{}, &diag.Error{
			Code:     diag.CodeUnknownFunction,
			Message:  "no window translation registered",
			Function: name,
		}
	}
	return s, nil
}

// Known reports whether name is in the classifier table.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// RegisterRolling registers a fixed-width rolling aggregate under the
// given surface name. before/after are the frame half-widths in rows.
// Registration must complete before any compilation begins; the table is
// read without synchronization afterwards.
//
// Asymmetric widths are accepted here and rejected at resolution time
// with UNSUPPORTED_FRAME, so the failure surfaces on the statement that
// actually uses the function.
func RegisterRolling(name, sqlName string, before, after int) error {
	if name == "" || sqlName == "" {
		return diag.New(diag.CodeUnknownFunction, "rolling registration needs a name and a SQL name")
	}
	if before < 0 || after < 0 {
		return &diag.Error{
			Code:     diag.CodeUnsupportedFrame,
			Message:  "rolling half-widths must be non-negative",
			Function: name,
		}
	}
	registerMu.Lock()
	defer registerMu.Unlock()
	add(Spec{Name: name, Category: RollingAggregate, SQLName: sqlName,
		RequiresOrder: true, OrderSource: ContextOnly,
		RollingBefore: before, RollingAfter: after})
	return nil
}

func mustRegisterRolling(name, sqlName string, before, after int) {
	if err := RegisterRolling(name, sqlName, before, after); err != nil {
		panic(err)
	}
}

// Names returns every registered function name in sorted order, for the
// CLI's functions listing.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
