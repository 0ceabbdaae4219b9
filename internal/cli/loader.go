package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/overql/overql/internal/parse"
	"github.com/overql/overql/internal/windowir"
)

// StatementFile is the YAML description of one mutate/filter statement.
//
//	from: batting
//	dialect: sqlite
//	group_by: [playerID]
//	arrange: [yearID]          # entries may be "desc(col)"
//	select:
//	  - as: year_rank
//	    expr: min_rank()
//	filter: min_rank() == 1
type StatementFile struct {
	From    string       `yaml:"from"`
	Dialect string       `yaml:"dialect,omitempty"`
	GroupBy []string     `yaml:"group_by,omitempty"`
	Arrange []string     `yaml:"arrange,omitempty"`
	Select  []SelectSpec `yaml:"select,omitempty"`
	Filter  string       `yaml:"filter,omitempty"`

	// Star controls whether the base columns survive alongside the
	// select list. Defaults to true (mutate semantics: new columns are
	// added, existing ones kept).
	Star *bool `yaml:"star,omitempty"`
}

// SelectSpec is one aliased select-list entry.
type SelectSpec struct {
	As   string `yaml:"as"`
	Expr string `yaml:"expr"`
}

// LoadStatement reads and parses a statement YAML file into the IR the
// compiler consumes. Unknown YAML fields are rejected (catches typos).
func LoadStatement(path string) (*windowir.Statement, windowir.QueryContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, windowir.QueryContext{}, fmt.Errorf("failed to read statement file: %w", err)
	}

	var sf StatementFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sf); err != nil {
		return nil, windowir.QueryContext{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return buildStatement(&sf)
}

func buildStatement(sf *StatementFile) (*windowir.Statement, windowir.QueryContext, error) {
	if sf.From == "" {
		return nil, windowir.QueryContext{}, fmt.Errorf("statement file needs a from: table")
	}
	dialectName := sf.Dialect
	if dialectName == "" {
		dialectName = "sqlite"
	}

	ctx := windowir.NewContext(dialectName).WithPartition(sf.GroupBy...)
	if len(sf.Arrange) > 0 {
		keys := make([]windowir.OrderKey, 0, len(sf.Arrange))
		for _, entry := range sf.Arrange {
			key, err := parseArrange(entry)
			if err != nil {
				return nil, windowir.QueryContext{}, err
			}
			keys = append(keys, key)
		}
		ctx = ctx.WithOrder(keys...)
	}

	stmt := &windowir.Statement{
		Star: sf.Star == nil || *sf.Star,
		From: windowir.Relation{Table: sf.From},
	}
	for _, sel := range sf.Select {
		if sel.As == "" || sel.Expr == "" {
			return nil, windowir.QueryContext{}, fmt.Errorf("select entries need both as: and expr:")
		}
		e, err := parse.Expr(sel.Expr)
		if err != nil {
			return nil, windowir.QueryContext{}, fmt.Errorf("select %q: %w", sel.As, err)
		}
		stmt.Select = append(stmt.Select, windowir.SelectItem{Alias: sel.As, Expr: e})
	}
	if sf.Filter != "" {
		e, err := parse.Expr(sf.Filter)
		if err != nil {
			return nil, windowir.QueryContext{}, fmt.Errorf("filter: %w", err)
		}
		stmt.Where = e
	}
	return stmt, ctx, nil
}

// parseArrange parses one arrange entry: a column name or "desc(col)".
// Multi-variable entries are rejected; the context default order carries
// plain columns only.
func parseArrange(entry string) (windowir.OrderKey, error) {
	e, err := parse.Expr(entry)
	if err != nil {
		return windowir.OrderKey{}, fmt.Errorf("arrange %q: %w", entry, err)
	}
	descending := false
	if d, ok := e.(*windowir.Desc); ok {
		descending = true
		e = d.Inner
	}
	col, ok := e.(*windowir.Column)
	if !ok {
		return windowir.OrderKey{}, fmt.Errorf("arrange %q: only plain columns (optionally desc-wrapped) are supported", entry)
	}
	return windowir.OrderKey{Column: col.Name, Descending: descending}, nil
}
