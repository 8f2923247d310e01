package artisan

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// BuildFunc is a type's own construction logic. It receives the validated,
// fully defaulted specification and returns the constructed instance.
type BuildFunc func(ctx context.Context, s *Spec) (any, error)

// Field is one declared configuration field.
type Field struct {
	Name  string
	Value ValueType
	// Default is used when the field is absent; it only counts when HasDefault
	// is set so that nil can be a default.
	Default    any
	HasDefault bool
	// Optional marks a field that may be absent without a default.
	Optional    bool
	Description string
	// Constraints is merged verbatim into the compiled schema and enforced
	// for the keywords the validator understands.
	Constraints map[string]any
}

// Required reports whether the field must be present in a specification.
func (f Field) Required() bool { return !f.HasDefault && !f.Optional }

// TypeDecl is the declarative input to NewType and Declare.
type TypeDecl struct {
	Name   string // Simple name, the default registry key.
	Module string // Namespace used to qualify colliding names.
	Doc    string
	// Extends makes the new type a subtype of an existing one and inherits
	// its fields.
	Extends *Type
	Fields  []Field
	Build   BuildFunc
}

// Type is a constructible type: a named field list plus build logic. Types
// are immutable once created.
type Type struct {
	name   string
	module string
	doc    string
	parent *Type
	own    []Field
	build  BuildFunc
	seq    uint64
}

var typeSeq atomic.Uint64

// NewType creates a type without adding it to the default root layer. Such
// types are only reachable through explicitly pushed scopes.
func NewType(decl TypeDecl) (*Type, error) {
	name := strings.TrimSpace(decl.Name)
	if name == "" {
		return nil, singleIssue(CodeSchemaCompilation, "/", "", "type name must not be empty")
	}
	if strings.ContainsAny(name, "()") {
		return nil, singleIssue(CodeSchemaCompilation, "/", name, "type name must not contain parentheses")
	}
	own := make([]Field, len(decl.Fields))
	for i, f := range decl.Fields {
		if f.Constraints != nil {
			c := make(map[string]any, len(f.Constraints))
			for k, v := range f.Constraints {
				c[k] = v
			}
			f.Constraints = c
		}
		own[i] = f
	}
	return &Type{
		name:   name,
		module: decl.Module,
		doc:    decl.Doc,
		parent: decl.Extends,
		own:    own,
		build:  decl.Build,
		seq:    typeSeq.Add(1),
	}, nil
}

// Declare creates a type and adds it to the process-wide list of known types
// that make up the default root layer.
func Declare(decl TypeDecl) (*Type, error) {
	t, err := NewType(decl)
	if err != nil {
		return nil, err
	}
	knownMu.Lock()
	known = append(known, t)
	defaultRoot = nil
	knownMu.Unlock()
	return t, nil
}

// MustDeclare is like Declare but panics on error.
func MustDeclare(decl TypeDecl) *Type {
	t, err := Declare(decl)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	knownMu     sync.Mutex
	known       []*Type
	defaultRoot *Scope
)

// Name returns the simple name.
func (t *Type) Name() string { return t.name }

// Module returns the declaring namespace (may be empty).
func (t *Type) Module() string { return t.module }

// QualifiedName returns "Name (Module)", or Name when Module is empty.
func (t *Type) QualifiedName() string {
	if t.module == "" {
		return t.name
	}
	return t.name + " (" + t.module + ")"
}

// Doc returns the full documentation text.
func (t *Type) Doc() string { return t.doc }

// Summary returns the first paragraph of Doc.
func (t *Type) Summary() string {
	summary, _ := splitDoc(t.doc)
	return summary
}

// Detail returns everything after the first paragraph of Doc.
func (t *Type) Detail() string {
	_, detail := splitDoc(t.doc)
	return detail
}

// Parent returns the type this one extends, or nil.
func (t *Type) Parent() *Type { return t.parent }

// HasBuild reports whether the type carries its own build logic.
func (t *Type) HasBuild() bool { return t.build != nil }

// IsSubtypeOf reports whether t is u or extends u, directly or transitively.
func (t *Type) IsSubtypeOf(u *Type) bool {
	for c := t; c != nil; c = c.parent {
		if c == u {
			return true
		}
	}
	return false
}

// OwnFields returns a copy of the fields declared directly on t.
func (t *Type) OwnFields() []Field {
	out := make([]Field, len(t.own))
	copy(out, t.own)
	return out
}

// Fields returns the effective field list: inherited fields first, in
// declaration order, with redeclared fields replaced in place.
func (t *Type) Fields() []Field {
	if t.parent == nil {
		return t.OwnFields()
	}
	out := t.parent.Fields()
	idx := make(map[string]int, len(out))
	for i, f := range out {
		idx[f.Name] = i
	}
	for _, f := range t.own {
		if i, ok := idx[f.Name]; ok {
			out[i] = f
			continue
		}
		idx[f.Name] = len(out)
		out = append(out, f)
	}
	return out
}

// ownsField reports whether any type in t's chain declares name.
func (t *Type) ownsField(name string) bool {
	for c := t; c != nil; c = c.parent {
		for _, f := range c.own {
			if f.Name == name {
				return true
			}
		}
	}
	return false
}

func (t *Type) String() string { return t.QualifiedName() }

func splitDoc(doc string) (string, string) {
	doc = strings.TrimSpace(strings.ReplaceAll(doc, "\r\n", "\n"))
	if doc == "" {
		return "", ""
	}
	head, tail, found := strings.Cut(doc, "\n\n")
	head = strings.Join(strings.Fields(head), " ")
	if !found {
		return head, ""
	}
	return head, strings.TrimSpace(tail)
}
