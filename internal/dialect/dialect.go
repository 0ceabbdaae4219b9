// Package dialect holds the SQL dialect descriptors the emitter quotes
// and formats against.
//
// Descriptors are declared in an embedded CUE file (dialects.cue) and
// validated against a CUE schema at load time, so a malformed descriptor
// fails at startup rather than producing malformed SQL later. The loaded
// registry is read-only.
package dialect

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
)

//go:embed dialects.cue
var dialectsCUE string

// Dialect describes one target SQL dialect.
type Dialect struct {
	// Name is the registry key ("sqlite", "postgres", "duckdb", "mysql",
	// "derby").
	Name string `json:"name"`

	// Quote is the identifier quote character.
	Quote string `json:"quote"`

	// SupportsFrames reports whether the dialect accepts ROWS BETWEEN
	// frame clauses. A frame-bearing window function compiled against a
	// frameless dialect fails with UNSUPPORTED_FRAME.
	SupportsFrames bool `json:"supportsFrames"`

	// WindowInWhere reports whether the dialect can filter on window
	// results without a subquery (QUALIFY and friends). The compiler
	// never relies on it: the subquery rewrite is always applied, so
	// generated SQL stays portable to dialects without the relaxation.
	WindowInWhere bool `json:"windowInWhere"`
}

// QuoteIdent quotes an identifier for the dialect. The identifier is
// NFC-normalized first so visually identical names quote identically, and
// embedded quote characters are doubled.
func (d Dialect) QuoteIdent(name string) string {
	normalized := norm.NFC.String(name)
	closing := d.Quote
	if d.Quote == "[" {
		closing = "]"
	}
	escaped := strings.ReplaceAll(normalized, closing, closing+closing)
	return d.Quote + escaped + closing
}

var (
	loadOnce sync.Once
	registry map[string]Dialect
	loadErr  error
)

func loadRegistry() {
	ctx := cuecontext.New()
	val := ctx.CompileString(dialectsCUE)
	if err := val.Err(); err != nil {
		loadErr = fmt.Errorf("compiling dialect descriptors: %w", err)
		return
	}
	dialects := val.LookupPath(cue.ParsePath("dialects"))
	if err := dialects.Err(); err != nil {
		loadErr = fmt.Errorf("locating dialects: %w", err)
		return
	}
	if err := dialects.Validate(cue.Concrete(true)); err != nil {
		loadErr = fmt.Errorf("validating dialect descriptors: %w", err)
		return
	}

	registry = make(map[string]Dialect)
	iter, err := dialects.Fields()
	if err != nil {
		loadErr = fmt.Errorf("iterating dialect descriptors: %w", err)
		return
	}
	for iter.Next() {
		var d Dialect
		if err := iter.Value().Decode(&d); err != nil {
			loadErr = fmt.Errorf("decoding dialect %q: %w", iter.Selector(), err)
			return
		}
		registry[d.Name] = d
	}
}

// Lookup returns the descriptor for a dialect name. Unknown names are an
// error; there is no silent default dialect.
func Lookup(name string) (Dialect, error) {
	loadOnce.Do(loadRegistry)
	if loadErr != nil {
		return Dialect{}, loadErr
	}
	d, ok := registry[name]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown dialect %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	loadOnce.Do(loadRegistry)
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
