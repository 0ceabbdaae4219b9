// Package parse turns the surface expression syntax into windowir trees.
//
// This is the parser collaborator the compiler core consumes from: it
// knows nothing about window semantics and produces plain Call nodes that
// the classifier and resolver interpret. The grammar covers exactly what
// mutate/filter expressions need - identifiers, literals, function calls,
// comparison/arithmetic/boolean operators, desc() markers, and an
// order_by(...) argument that becomes the call's explicit ordering
// override. It is not a SQL parser.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/overql/overql/internal/windowir"
)

// Expr parses one surface expression.
//
//	min_rank(G) == 1
//	lead(G, 2, order_by(yearID))
//	cumsum(G) / sum(G)
func Expr(input string) (windowir.Expr, error) {
	p := &parser{lex: &lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("trailing input %q at offset %d", p.tok.text, p.tok.pos)
	}
	return e, nil
}

// SortKeys parses a comma-separated ordering list ("yearID, desc(G)").
func SortKeys(input string) ([]windowir.SortKey, error) {
	var keys []windowir.SortKey
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		e, err := Expr(part)
		if err != nil {
			return nil, fmt.Errorf("ordering key %q: %w", part, err)
		}
		keys = append(keys, toSortKey(e))
	}
	return keys, nil
}

func toSortKey(e windowir.Expr) windowir.SortKey {
	if d, ok := e.(*windowir.Desc); ok {
		return windowir.SortKey{Expr: d.Inner, Descending: true}
	}
	return windowir.SortKey{Expr: e}
}

// Operator binding powers, loosest first.
var binaryPower = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5,
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) parseBinary(minPower int) (windowir.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp {
		power, ok := binaryPower[p.tok.text]
		if !ok || power < minPower {
			break
		}
		op := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(power + 1)
		if err != nil {
			return nil, err
		}
		left = &windowir.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (windowir.Expr, error) {
	switch p.tok.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("expected ) at offset %d", p.tok.pos)
		}
		return e, p.advance()
	case tokString:
		s := p.tok.text
		return &windowir.Literal{Value: s}, p.advance()
	case tokNumber:
		text := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", text, err)
			}
			return &windowir.Literal{Value: f}, nil
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", text, err)
		}
		return &windowir.Literal{Value: n}, nil
	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch name {
		case "true":
			return &windowir.Literal{Value: true}, nil
		case "false":
			return &windowir.Literal{Value: false}, nil
		case "null":
			return &windowir.Literal{Value: nil}, nil
		}
		if p.tok.kind != tokLParen {
			return &windowir.Column{Name: name}, nil
		}
		return p.parseCall(name)
	default:
		return nil, fmt.Errorf("unexpected token %q at offset %d", p.tok.text, p.tok.pos)
	}
}

// parseCall parses "<name>(args...)" with the opening paren current.
// A desc(x) call becomes a Desc marker; an order_by(...) argument is
// stripped out of the argument list and becomes the call's explicit
// ordering override.
func (p *parser) parseCall(name string) (windowir.Expr, error) {
	if err := p.advance(); err != nil { // consume (
		return nil, err
	}
	var args []windowir.Expr
	for p.tok.kind != tokRParen {
		arg, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("expected , or ) in %s(...) at offset %d", name, p.tok.pos)
		}
	}
	if err := p.advance(); err != nil { // consume )
		return nil, err
	}

	if name == "desc" {
		if len(args) != 1 {
			return nil, fmt.Errorf("desc() takes exactly one argument, got %d", len(args))
		}
		return &windowir.Desc{Inner: args[0]}, nil
	}

	call := &windowir.Call{Func: name}
	for _, arg := range args {
		if ob, ok := arg.(*windowir.Call); ok && ob.Func == "order_by" {
			for _, key := range ob.Args {
				call.OrderBy = append(call.OrderBy, toSortKey(key))
			}
			continue
		}
		call.Args = append(call.Args, arg)
	}
	return call, nil
}
