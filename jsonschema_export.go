package artisan

import (
	"context"
	"sort"

	js "github.com/MasonMcGill/artisan/jsonschema"
	"github.com/MasonMcGill/artisan/internal/engine"
)

// JSONSchema projects n into a self-contained draft-07 document. Referenced
// types are emitted under $defs, keyed by registry key.
func (n *Node) JSONSchema() *js.Schema {
	p := newProjector()
	root := p.body(n)
	root.Schema = js.Draft07
	p.attach(root)
	return root
}

// DocumentSchema compiles t under the scope carried by ctx and projects it.
func DocumentSchema(ctx context.Context, t *Type) (*js.Schema, error) {
	n, err := CompileSchema(ctx, t)
	if err != nil {
		return nil, err
	}
	return n.JSONSchema(), nil
}

// ListSchema describes a JSON array of t specifications.
func ListSchema(ctx context.Context, t *Type) (*js.Schema, error) {
	n, err := CompileSchema(ctx, t)
	if err != nil {
		return nil, err
	}
	p := newProjector()
	root := &js.Schema{Schema: js.Draft07, Type: "array", Items: p.ref(n)}
	p.attach(root)
	return root, nil
}

// DictSchema describes a JSON object mapping names to t specifications.
func DictSchema(ctx context.Context, t *Type) (*js.Schema, error) {
	n, err := CompileSchema(ctx, t)
	if err != nil {
		return nil, err
	}
	p := newProjector()
	root := &js.Schema{Schema: js.Draft07, Type: "object", AdditionalProperties: p.ref(n)}
	p.attach(root)
	return root, nil
}

// ScopeSchema describes a specification of any type in the scope carried by
// ctx. Every scope key gets a $defs entry; the document is a oneOf over the
// tagged branches of the concrete ones.
func ScopeSchema(ctx context.Context) (*js.Schema, error) {
	p := newProjector()
	branches, err := p.scope(ScopeFrom(ctx))
	if err != nil {
		return nil, err
	}
	root := &js.Schema{Schema: js.Draft07, OneOf: branches}
	p.attach(root)
	return root, nil
}

// ListScopeSchema describes a JSON array of specifications of any scope type.
func ListScopeSchema(ctx context.Context) (*js.Schema, error) {
	p := newProjector()
	branches, err := p.scope(ScopeFrom(ctx))
	if err != nil {
		return nil, err
	}
	root := &js.Schema{Schema: js.Draft07, Type: "array", Items: &js.Schema{OneOf: branches}}
	p.attach(root)
	return root, nil
}

// DictScopeSchema describes a JSON object mapping names to specifications of
// any scope type. A "$schema" entry is allowed alongside them.
func DictScopeSchema(ctx context.Context) (*js.Schema, error) {
	p := newProjector()
	branches, err := p.scope(ScopeFrom(ctx))
	if err != nil {
		return nil, err
	}
	root := &js.Schema{
		Schema:               js.Draft07,
		Type:                 "object",
		Properties:           map[string]*js.Schema{"$schema": {Type: "string"}},
		AdditionalProperties: &js.Schema{OneOf: branches},
	}
	p.attach(root)
	return root, nil
}

type projector struct {
	defs map[string]*js.Schema
	seen map[*Node]bool
}

func newProjector() *projector {
	return &projector{defs: map[string]*js.Schema{}, seen: map[*Node]bool{}}
}

// scope emits a $defs entry per key of s and returns the branches selecting
// its concrete types.
func (p *projector) scope(s *Scope) ([]*js.Schema, error) {
	active := s.active()
	var branches []*js.Schema
	for _, k := range s.Keys() {
		n, err := Compile(s, active[k])
		if err != nil {
			return nil, err
		}
		if k == n.TypeName {
			p.ref(n)
		} else {
			p.defs[k] = p.body(n)
		}
		if !n.Abstract {
			branches = append(branches, taggedBranch(k))
		}
	}
	return branches, nil
}

// taggedBranch requires the type tag key and defers to its definition.
func taggedBranch(key string) *js.Schema {
	return &js.Schema{AllOf: []*js.Schema{
		{Required: []string{TagField}},
		{Properties: map[string]*js.Schema{TagField: {Const: key, HasConst: true}}},
		{Ref: defRef(key)},
	}}
}

func (p *projector) attach(root *js.Schema) {
	if len(p.defs) > 0 {
		root.Defs = p.defs
	}
}

func defRef(key string) string { return "#/$defs/" + pointerToken(key) }

// ref emits n under $defs once and returns a reference to it.
func (p *projector) ref(n *Node) *js.Schema {
	if !p.seen[n] {
		p.seen[n] = true
		p.defs[n.TypeName] = p.body(n)
	}
	return &js.Schema{Ref: defRef(n.TypeName)}
}

func (p *projector) body(n *Node) *js.Schema {
	if n.Abstract {
		s := &js.Schema{Description: n.Description}
		for _, v := range n.Variants {
			p.ref(v.Node)
			branch := taggedBranch(v.Key)
			branch.AllOf[2].Ref = defRef(v.Node.TypeName)
			s.OneOf = append(s.OneOf, branch)
		}
		return s
	}
	s := &js.Schema{
		Type:                 "object",
		Description:          n.Description,
		Properties:           make(map[string]*js.Schema, len(n.Fields)+1),
		Required:             n.Required(),
		AdditionalProperties: false,
	}
	if n.Tag != nil {
		tag := &js.Schema{Type: "string"}
		if len(n.Tag.Value.Enum) > 0 {
			tag.Enum = n.Tag.Value.Enum
		}
		s.Properties[TagField] = tag
	}
	for _, f := range n.Fields {
		fs := p.value(f.Value)
		// Draft-07 ignores keywords beside $ref.
		if fs.Ref != "" && (f.Description != "" || f.HasDefault || len(f.Constraints) > 0) {
			fs = &js.Schema{AllOf: []*js.Schema{fs}}
		}
		fs.Description = f.Description
		if f.HasDefault {
			fs.Default, fs.HasDefault = plain(engine.DeepCopy(f.Default)), true
		}
		if len(f.Constraints) > 0 {
			fs.Extra = make(map[string]any, len(f.Constraints))
			for k, v := range f.Constraints {
				fs.Extra[k] = v
			}
		}
		s.Properties[f.Name] = fs
	}
	return s
}

func (p *projector) value(vs *ValueSchema) *js.Schema {
	var s *js.Schema
	switch vs.Kind {
	case KindBool:
		s = &js.Schema{Type: "boolean"}
	case KindInteger:
		s = &js.Schema{Type: "integer"}
	case KindFloat:
		s = &js.Schema{Type: "number"}
	case KindString:
		s = &js.Schema{Type: "string"}
	case KindNull:
		s = &js.Schema{Type: "null"}
	case KindList:
		s = &js.Schema{Type: "array", Items: p.value(vs.Elem)}
	case KindMap:
		s = &js.Schema{Type: "object", AdditionalProperties: p.value(vs.Elem)}
	case KindRef:
		s = p.ref(vs.Node)
	case KindUnion:
		s = &js.Schema{}
		for _, v := range vs.Variants {
			s.AnyOf = append(s.AnyOf, p.value(v))
		}
	default:
		s = &js.Schema{}
	}
	if len(vs.Enum) > 0 {
		s.Enum = vs.Enum
	}
	return s
}

// DefKeys returns the sorted $defs keys of a projected document.
func DefKeys(s *js.Schema) []string {
	keys := make([]string, 0, len(s.Defs))
	for k := range s.Defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
