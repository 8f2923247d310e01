package typedef

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	artisan "github.com/MasonMcGill/artisan"
)

// Expr is a parsed type expression such as list<Person>, string|null,
// enum(red, green) or integer?.
type Expr struct {
	Kind     artisan.Kind
	Name     string // KindRef: referenced type name
	Elem     *Expr  // KindList, KindMap
	Variants []*Expr
	Enum     []any
}

// Refs returns every type name the expression references.
func (e *Expr) Refs() []string {
	var out []string
	var walk func(*Expr)
	walk = func(x *Expr) {
		if x == nil {
			return
		}
		if x.Kind == artisan.KindRef {
			out = append(out, x.Name)
		}
		walk(x.Elem)
		for _, v := range x.Variants {
			walk(v)
		}
	}
	walk(e)
	return out
}

// ValueType converts the expression, looking referenced names up with
// lookup.
func (e *Expr) ValueType(lookup func(name string) (*artisan.Type, bool)) (artisan.ValueType, error) {
	v := artisan.ValueType{Kind: e.Kind, Enum: e.Enum}
	switch e.Kind {
	case artisan.KindList, artisan.KindMap:
		elem, err := e.Elem.ValueType(lookup)
		if err != nil {
			return v, err
		}
		v.Elem = &elem
	case artisan.KindRef:
		t, ok := lookup(e.Name)
		if !ok {
			return v, fmt.Errorf("unknown type %q", e.Name)
		}
		v.Ref = t
	case artisan.KindUnion:
		for _, x := range e.Variants {
			vv, err := x.ValueType(lookup)
			if err != nil {
				return v, err
			}
			v.Variants = append(v.Variants, vv)
		}
	}
	return v, nil
}

var primitives = map[string]artisan.Kind{
	"any":     artisan.KindAny,
	"bool":    artisan.KindBool,
	"boolean": artisan.KindBool,
	"int":     artisan.KindInteger,
	"integer": artisan.KindInteger,
	"float":   artisan.KindFloat,
	"number":  artisan.KindFloat,
	"str":     artisan.KindString,
	"string":  artisan.KindString,
	"null":    artisan.KindNull,
}

// ParseExpr parses a type expression.
func ParseExpr(src string) (*Expr, error) {
	p := &parser{src: src}
	e, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("type expression %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if !p.accept(c) {
		return p.errorf("expected %q", c)
	}
	return nil
}

func isIdent(c byte) bool {
	return c == '_' || c == '.' || c == '-' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) union() (*Expr, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	variants := []*Expr{first}
	for p.accept('|') {
		next, err := p.term()
		if err != nil {
			return nil, err
		}
		variants = append(variants, next)
	}
	if len(variants) == 1 {
		return first, nil
	}
	return &Expr{Kind: artisan.KindUnion, Variants: variants}, nil
}

func (p *parser) term() (*Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.accept('?') {
		return &Expr{Kind: artisan.KindUnion, Variants: []*Expr{e, {Kind: artisan.KindNull}}}, nil
	}
	return e, nil
}

func (p *parser) primary() (*Expr, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a type")
	}
	switch name {
	case "list", "map":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.union()
		if err != nil {
			return nil, err
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		kind := artisan.KindList
		if name == "map" {
			kind = artisan.KindMap
		}
		return &Expr{Kind: kind, Elem: elem}, nil
	case "enum":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var values []any
		for {
			v, err := p.literal()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if p.accept(')') {
				break
			}
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		return &Expr{Kind: artisan.KindAny, Enum: values}, nil
	}
	if k, ok := primitives[name]; ok {
		return &Expr{Kind: k}, nil
	}
	return &Expr{Kind: artisan.KindRef, Name: name}, nil
}

// literal reads an enum member: a quoted string, a number, true, false,
// null, or a bare word taken as a string.
func (p *parser) literal() (any, error) {
	p.skipSpace()
	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		quote := p.src[p.pos]
		end := strings.IndexByte(p.src[p.pos+1:], quote)
		if end < 0 {
			return nil, p.errorf("unterminated string")
		}
		s := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return s, nil
	}
	word := p.ident()
	if word == "" {
		return nil, p.errorf("expected a literal")
	}
	switch word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return f, nil
	}
	return word, nil
}
