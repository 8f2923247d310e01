package artisan

import (
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/MasonMcGill/artisan/internal/engine"
)

// Spec is a normalized, immutable specification: the field values a
// construction runs with. Nested specifications appear as *Spec values.
//
// Accessors return copies of container values so a Spec never changes after
// normalization.
type Spec struct {
	node     *Node
	typeName string
	tagged   bool
	path     string
	keys     []string // present fields, declaration order
	values   map[string]any
	presence map[string]Presence
}

// Node returns the compiled node the specification was normalized against.
func (s *Spec) Node() *Node { return s.node }

// Type returns the concrete type the specification constructs.
func (s *Spec) Type() *Type { return s.node.Type }

// TypeName returns the registry key of the constructed type.
func (s *Spec) TypeName() string { return s.typeName }

// Path returns the JSON Pointer of the specification within its root
// ("/" for the root itself).
func (s *Spec) Path() string { return s.path }

// Keys returns the present field names in declaration order.
func (s *Spec) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of present fields.
func (s *Spec) Len() int { return len(s.keys) }

// Has reports whether name is present, either given or defaulted.
func (s *Spec) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Presence returns the flags recorded for name.
func (s *Spec) Presence(name string) Presence { return s.presence[name] }

// Get returns the value of name.
func (s *Spec) Get(name string) (any, bool) {
	v, ok := s.values[name]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// String returns the string value of name, or "" when absent or not a string.
func (s *Spec) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Int returns the integer value of name.
func (s *Spec) Int(name string) (int64, bool) { return engine.ToInt(s.values[name]) }

// Float returns the numeric value of name.
func (s *Spec) Float(name string) (float64, bool) { return engine.ToFloat(s.values[name]) }

// Bool returns the boolean value of name.
func (s *Spec) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

// List returns a copy of the list value of name.
func (s *Spec) List(name string) ([]any, bool) {
	l, ok := s.values[name].([]any)
	if !ok {
		return nil, false
	}
	return copyValue(l).([]any), true
}

// Map returns a copy of the map value of name.
func (s *Spec) Map(name string) (map[string]any, bool) {
	m, ok := s.values[name].(map[string]any)
	if !ok {
		return nil, false
	}
	return copyValue(m).(map[string]any), true
}

// Spec returns the nested specification stored under name.
func (s *Spec) Spec(name string) (*Spec, bool) {
	v, ok := s.values[name].(*Spec)
	return v, ok
}

// AsMap renders the specification as plain JSON-like data. The type tag is
// included when the input carried one.
func (s *Spec) AsMap() map[string]any {
	out := make(map[string]any, len(s.keys)+1)
	if s.tagged {
		out[TagField] = s.typeName
	}
	for _, k := range s.keys {
		out[k] = plain(s.values[k])
	}
	return out
}

// MarshalJSON renders AsMap.
func (s *Spec) MarshalJSON() ([]byte, error) { return json.Marshal(s.AsMap()) }

// Render renders a compact, deterministic description such as
// Person{age=30 name="Ada"}.
func (s *Spec) Render() string {
	b := &strings.Builder{}
	s.format(b)
	return b.String()
}

func (s *Spec) format(b *strings.Builder) {
	b.WriteString(s.typeName)
	b.WriteByte('{')
	keys := s.Keys()
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		formatValue(b, s.values[k])
	}
	b.WriteByte('}')
}

func formatValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case *Spec:
		t.format(b)
	case string:
		b.WriteString(strconv.Quote(t))
	default:
		data, err := json.Marshal(plain(v))
		if err != nil {
			b.WriteString("?")
			return
		}
		b.Write(data)
	}
}

// plain converts nested specifications into maps.
func plain(v any) any {
	switch t := v.(type) {
	case *Spec:
		return t.AsMap()
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = plain(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = plain(x)
		}
		return out
	}
	return v
}

// copyValue copies containers while sharing the immutable nested specs.
func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = copyValue(x)
		}
		return out
	}
	return v
}

func itoa(i int) string { return strconv.Itoa(i) }
