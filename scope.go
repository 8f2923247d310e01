package artisan

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// Layer is one set of name→type bindings.
type Layer map[string]*Type

func (l Layer) clone() Layer {
	out := make(Layer, len(l))
	for k, v := range l {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Scope is an immutable stack of layers used to resolve type tags. Inner
// layers shadow outer ones on colliding keys; all other keys stay visible.
type Scope struct {
	parent *Scope
	layer  Layer
	id     uint64
	depth  int

	once   sync.Once
	merged map[string]*Type

	nodes sync.Map // *Type -> *Node, compiled under this scope
}

var scopeSeq atomic.Uint64

// NewScope returns a root scope holding a single layer.
func NewScope(root Layer) *Scope {
	return &Scope{layer: root.clone(), id: scopeSeq.Add(1)}
}

// ID is unique per scope value and identifies it in compilation caches.
func (s *Scope) ID() uint64 { return s.id }

// Depth is the number of layers pushed above the root.
func (s *Scope) Depth() int { return s.depth }

// Push returns a new scope with overrides layered on top of s. s itself is
// left untouched.
func (s *Scope) Push(overrides Layer) *Scope {
	return &Scope{parent: s, layer: overrides.clone(), id: scopeSeq.Add(1), depth: s.depth + 1}
}

// Pop returns the scope below s together with s's top layer. Popping the root
// layer fails with ErrEmptyScope.
func (s *Scope) Pop() (*Scope, Layer, error) {
	if s.parent == nil {
		return s, nil, singleIssue(CodeEmptyScope, "/", "", "only the root layer is active")
	}
	return s.parent, s.layer.clone(), nil
}

// Resolve looks key up from the innermost layer outwards.
func (s *Scope) Resolve(key string) (*Type, error) {
	for c := s; c != nil; c = c.parent {
		if t, ok := c.layer[key]; ok {
			return t, nil
		}
	}
	return nil, singleIssue(CodeUnknownType, "/type", key, "no binding for '"+key+"' in the active scope")
}

// ActiveTypes returns the union of all layers, innermost binding winning.
// The returned map is a copy.
func (s *Scope) ActiveTypes() map[string]*Type {
	m := s.active()
	out := make(map[string]*Type, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Scope) active() map[string]*Type {
	s.once.Do(func() {
		var m map[string]*Type
		if s.parent != nil {
			parent := s.parent.active()
			m = make(map[string]*Type, len(parent)+len(s.layer))
			for k, v := range parent {
				m[k] = v
			}
		} else {
			m = make(map[string]*Type, len(s.layer))
		}
		for k, v := range s.layer {
			m[k] = v
		}
		s.merged = m
	})
	return s.merged
}

// Keys returns the active keys in ascending order.
func (s *Scope) Keys() []string {
	m := s.active()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NameOf returns the lexicographically first key bound to t.
func (s *Scope) NameOf(t *Type) (string, bool) {
	for _, k := range s.Keys() {
		if s.active()[k] == t {
			return k, true
		}
	}
	return "", false
}

// Subtypes returns the sorted keys of every binding that is a proper subtype
// of t (a type distinct from t that extends it).
func (s *Scope) Subtypes(t *Type) []string {
	var out []string
	m := s.active()
	for _, k := range s.Keys() {
		if v := m[k]; v != t && v.IsSubtypeOf(t) {
			out = append(out, k)
		}
	}
	return out
}

// IsAbstract reports whether t has subtypes visible in s.
func (s *Scope) IsAbstract(t *Type) bool {
	for _, v := range s.active() {
		if v != t && v.IsSubtypeOf(t) {
			return true
		}
	}
	return false
}

// ---- default root layer ----

// DefaultScope returns the root scope holding every declared type, keyed by
// simple name, or by "Name (Module)" when simple names collide. Two types
// sharing both name and module make the layer unbuildable.
func DefaultScope() (*Scope, error) {
	knownMu.Lock()
	defer knownMu.Unlock()
	if defaultRoot != nil {
		return defaultRoot, nil
	}
	byName := make(map[string][]*Type, len(known))
	for _, t := range known {
		byName[t.name] = append(byName[t.name], t)
	}
	layer := make(Layer, len(known))
	var iss Issues
	for name, group := range byName {
		if len(group) == 1 {
			layer[name] = group[0]
			continue
		}
		for _, t := range group {
			key := t.QualifiedName()
			if _, dup := layer[key]; dup || t.module == "" {
				iss = AppendIssues(iss, newIssue(CodeSchemaCompilation, "/", key, "types named '"+name+"' cannot be told apart by module"))
				continue
			}
			layer[key] = t
		}
	}
	if len(iss) > 0 {
		sortIssues(iss)
		return nil, iss
	}
	defaultRoot = NewScope(layer)
	return defaultRoot, nil
}

// MustDefaultScope is like DefaultScope but panics on error.
func MustDefaultScope() *Scope {
	s, err := DefaultScope()
	if err != nil {
		panic(err)
	}
	return s
}

// ---- context threading ----

type scopeKey struct{}

// WithScope returns a child context whose active scope is s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope carried by ctx, or the default root scope. It
// panics when the default root layer cannot be built, which is a startup
// configuration error.
func ScopeFrom(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey{}).(*Scope); ok && s != nil {
		return s
	}
	return MustDefaultScope()
}

// PushScope returns a child context with overrides layered on top of the
// context's active scope.
func PushScope(ctx context.Context, overrides Layer) context.Context {
	return WithScope(ctx, ScopeFrom(ctx).Push(overrides))
}

// Using runs fn with overrides active. Callers outside fn keep observing the
// previous scope, however fn returns.
func Using(ctx context.Context, overrides Layer, fn func(ctx context.Context) error) error {
	return fn(PushScope(ctx, overrides))
}

// ---- explicit stack ----

// Stack is a push/pop holder of the active scope for callers that prefer
// imperative scoping. A Stack belongs to one task; share scopes, not stacks.
type Stack struct {
	mu  sync.Mutex
	top *Scope
}

// NewStack returns a stack rooted at root (the default root scope when nil).
func NewStack(root *Scope) *Stack {
	if root == nil {
		root = MustDefaultScope()
	}
	return &Stack{top: root}
}

// Current returns the active scope.
func (st *Stack) Current() *Scope {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.top
}

// Push activates a new layer.
func (st *Stack) Push(overrides Layer) {
	st.mu.Lock()
	st.top = st.top.Push(overrides)
	st.mu.Unlock()
}

// Pop removes and returns the most recently pushed layer.
func (st *Stack) Pop() (Layer, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	below, layer, err := st.top.Pop()
	if err != nil {
		return nil, err
	}
	st.top = below
	return layer, nil
}

// Resolve resolves key in the active scope.
func (st *Stack) Resolve(key string) (*Type, error) { return st.Current().Resolve(key) }

// ActiveTypes returns the active bindings.
func (st *Stack) ActiveTypes() map[string]*Type { return st.Current().ActiveTypes() }

// Using pushes overrides, runs fn, and restores the previous state on every
// exit path, including panics.
func (st *Stack) Using(overrides Layer, fn func(s *Scope) error) error {
	st.mu.Lock()
	prev := st.top
	st.top = prev.Push(overrides)
	cur := st.top
	st.mu.Unlock()
	defer func() {
		st.mu.Lock()
		st.top = prev
		st.mu.Unlock()
	}()
	return fn(cur)
}

// Context returns a child of ctx carrying the active scope.
func (st *Stack) Context(ctx context.Context) context.Context {
	return WithScope(ctx, st.Current())
}
