package artisan

import (
	"context"
	"fmt"

	"github.com/MasonMcGill/artisan/internal/engine"
)

// TagField is the reserved field carrying a specification's type tag.
const TagField = "type"

// ValueSchema is a compiled ValueType. References point at compiled nodes,
// which may be shared or cyclic.
type ValueSchema struct {
	Kind     Kind
	Elem     *ValueSchema   // KindList, KindMap
	Node     *Node          // KindRef
	Variants []*ValueSchema // KindUnion
	Enum     []any
}

// FieldSchema is a compiled field.
type FieldSchema struct {
	Name        string
	Value       *ValueSchema
	Default     any
	HasDefault  bool
	Required    bool
	Description string
	Constraints map[string]any
}

// Variant is one branch of an abstract node: the key a specification uses to
// select it and the concrete node it selects.
type Variant struct {
	Key  string
	Node *Node
}

// Tag returns the discriminator field the branch injects: a required string
// whose only allowed value is the branch key.
func (v Variant) Tag() *FieldSchema {
	return &FieldSchema{
		Name:     TagField,
		Value:    &ValueSchema{Kind: KindString, Enum: []any{v.Key}},
		Required: true,
	}
}

// Node is the compiled schema of a type under one scope.
//
// A concrete node lists the effective fields. An abstract node lists no
// fields; it selects among Variants by the type tag.
type Node struct {
	TypeName    string // registry key in the compiling scope, or the simple name when unbound
	Type        *Type
	Description string
	Fields      []*FieldSchema
	Abstract    bool
	Variants    []Variant
	// Tag is the type discriminator: required on abstract nodes, optional on
	// concrete ones, nil when the type declares its own "type" field.
	Tag *FieldSchema

	index map[string]*FieldSchema
	scope *Scope
}

// Field returns the compiled field called name.
func (n *Node) Field(name string) (*FieldSchema, bool) {
	f, ok := n.index[name]
	return f, ok
}

// Required returns the names of required fields in declaration order.
func (n *Node) Required() []string {
	var out []string
	for _, f := range n.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Variant returns the branch selecting t.
func (n *Node) Variant(t *Type) (Variant, bool) {
	for _, v := range n.Variants {
		if v.Node.Type == t {
			return v, true
		}
	}
	return Variant{}, false
}

// Compile returns the node for t under s. Results are cached per scope, so
// compiling the same type under the same scope returns the same node.
func Compile(s *Scope, t *Type) (*Node, error) {
	if t == nil {
		return nil, singleIssue(CodeSchemaCompilation, "/", "", "nil type")
	}
	if n, ok := s.nodes.Load(t); ok {
		return n.(*Node), nil
	}
	c := &compiler{scope: s, building: map[*Type]*Node{}}
	n := c.node(t)
	c.checkDefaults()
	if len(c.iss) > 0 {
		return nil, c.iss
	}
	for bt, bn := range c.building {
		actual, _ := s.nodes.LoadOrStore(bt, bn)
		if bt == t {
			n = actual.(*Node)
		}
	}
	return n, nil
}

// CompileSchema compiles t under the scope carried by ctx.
func CompileSchema(ctx context.Context, t *Type) (*Node, error) {
	return Compile(ScopeFrom(ctx), t)
}

type pendingDefault struct {
	owner string
	field *FieldSchema
}

type compiler struct {
	scope    *Scope
	building map[*Type]*Node
	defaults []pendingDefault
	iss      Issues
}

func (c *compiler) fail(code, path, typeName, hint string) {
	c.iss = AppendIssues(c.iss, newIssue(code, path, typeName, hint))
}

func (c *compiler) typeName(t *Type) string {
	if k, ok := c.scope.NameOf(t); ok {
		return k
	}
	return t.name
}

func (c *compiler) node(t *Type) *Node {
	if n, ok := c.scope.nodes.Load(t); ok {
		return n.(*Node)
	}
	if n, ok := c.building[t]; ok {
		return n
	}
	n := &Node{TypeName: c.typeName(t), Type: t, Description: t.doc, index: map[string]*FieldSchema{}, scope: c.scope}
	c.building[t] = n
	if c.scope.IsAbstract(t) {
		c.abstract(n)
		return n
	}
	c.concrete(n)
	return n
}

func (c *compiler) abstract(n *Node) {
	t := n.Type
	n.Abstract = true
	if t.ownsField(TagField) {
		c.fail(CodeReservedField, "/"+TagField, n.TypeName, "abstract types may not declare a field named 'type'")
	}
	active := c.scope.active()
	var keys []any
	for _, key := range c.scope.Subtypes(t) {
		sub := active[key]
		if c.scope.IsAbstract(sub) {
			continue
		}
		n.Variants = append(n.Variants, Variant{Key: key, Node: c.node(sub)})
		keys = append(keys, key)
	}
	n.Tag = &FieldSchema{Name: TagField, Value: &ValueSchema{Kind: KindString, Enum: keys}, Required: true}
}

func (c *compiler) concrete(n *Node) {
	t := n.Type
	for l := t; l != nil; l = l.parent {
		seen := map[string]bool{}
		for _, f := range l.own {
			if seen[f.Name] {
				c.fail(CodeSchemaCompilation, childPointer("/", f.Name), l.name, "field '"+f.Name+"' declared twice")
			}
			seen[f.Name] = true
		}
	}
	hierarchy := t.parent != nil
	for _, f := range t.Fields() {
		path := childPointer("/", f.Name)
		if f.Name == "" {
			c.fail(CodeSchemaCompilation, "/", n.TypeName, "field name must not be empty")
			continue
		}
		if f.Name == TagField && hierarchy {
			c.fail(CodeReservedField, path, n.TypeName, "subtypes may not declare a field named 'type'")
			continue
		}
		if msg := f.Value.check(); msg != "" {
			c.fail(CodeSchemaCompilation, path, n.TypeName, msg)
			continue
		}
		for _, it := range engine.CheckShape(f.Constraints) {
			c.fail(CodeBadConstraint, path, n.TypeName, it.Message)
		}
		fs := &FieldSchema{
			Name:        f.Name,
			Value:       c.value(f.Value),
			Default:     f.Default,
			HasDefault:  f.HasDefault,
			Required:    f.Required(),
			Description: f.Description,
			Constraints: f.Constraints,
		}
		if fs.HasDefault {
			c.defaults = append(c.defaults, pendingDefault{owner: n.TypeName, field: fs})
		}
		n.Fields = append(n.Fields, fs)
		n.index[fs.Name] = fs
	}
	if !t.ownsField(TagField) {
		var keys []any
		for _, k := range c.scope.Keys() {
			if c.scope.active()[k] == t {
				keys = append(keys, k)
			}
		}
		n.Tag = &FieldSchema{Name: TagField, Value: &ValueSchema{Kind: KindString, Enum: keys}}
	}
}

func (c *compiler) value(v ValueType) *ValueSchema {
	vs := &ValueSchema{Kind: v.Kind, Enum: copyList(v.Enum)}
	switch v.Kind {
	case KindList, KindMap:
		vs.Elem = c.value(*v.Elem)
	case KindRef:
		vs.Node = c.node(v.Ref)
	case KindUnion:
		for _, vv := range v.Variants {
			vs.Variants = append(vs.Variants, c.value(vv))
		}
	}
	return vs
}

// checkDefaults runs every collected default through normalization and
// validation once all nodes of this compilation are complete.
func (c *compiler) checkDefaults() {
	if len(c.iss) > 0 {
		return
	}
	for _, d := range c.defaults {
		path := childPointer("/", d.field.Name)
		nz := &normalizer{}
		v, err := nz.value(d.field.Value, engine.DeepCopy(d.field.Default), path)
		if err == nil {
			vd := &validator{failFast: true}
			vd.field(d.field, v, path, d.owner)
			if len(vd.iss) > 0 {
				err = vd.iss
			}
		}
		if err != nil {
			c.fail(CodeSchemaCompilation, path, d.owner, fmt.Sprintf("default does not satisfy the field type: %v", err))
		}
	}
}

func copyList(l []any) []any {
	if l == nil {
		return nil
	}
	out := make([]any, len(l))
	copy(out, l)
	return out
}
