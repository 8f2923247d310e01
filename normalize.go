package artisan

import (
	"context"
	"fmt"
	"sort"

	"github.com/MasonMcGill/artisan/internal/engine"
)

// Normalize turns raw (a JSON-like object or a *Spec) into a specification
// for n. Unknown keys are rejected, absent fields with defaults receive a
// fresh copy of the default, nested references are normalized recursively
// and abstract nodes are resolved through the type tag at any depth.
//
// Normalize does not validate field values; see Validate.
func Normalize(ctx context.Context, n *Node, raw any) (*Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return (&normalizer{}).object(n, raw, "/")
}

type normalizer struct{}

func asObject(raw any) (map[string]any, bool) {
	switch t := raw.(type) {
	case map[string]any:
		return t, true
	case *Spec:
		if t == nil {
			return nil, false
		}
		return t.AsMap(), true
	}
	return nil, false
}

func (nz *normalizer) object(n *Node, raw any, path string) (*Spec, error) {
	m, ok := asObject(raw)
	if !ok {
		return nil, singleIssue(CodeInvalidType, path, n.TypeName, fmt.Sprintf("expected an object, got %s", describe(raw)))
	}
	tag, tagged := m[TagField]
	typeName := n.TypeName
	if n.Tag != nil && (tagged || n.Abstract) {
		t, err := ResolveType(n.scope, n.Type, tag)
		if err != nil {
			return nil, rebaseErr(path, err)
		}
		if n.Abstract {
			v, ok := n.Variant(t)
			if !ok {
				return nil, singleIssue(CodeUnknownType, childPointer(path, TagField), n.TypeName, "'"+t.name+"' is not a variant in this scope")
			}
			n, typeName = v.Node, v.Key
		}
		if key, ok := tag.(string); ok {
			typeName = key
		}
	}
	s := &Spec{
		node:     n,
		typeName: typeName,
		tagged:   tagged && n.Tag != nil,
		path:     path,
		values:   make(map[string]any, len(n.Fields)),
		presence: make(map[string]Presence, len(n.Fields)),
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var iss Issues
	for _, k := range keys {
		if k == TagField && n.Tag != nil {
			continue
		}
		if _, ok := n.Field(k); !ok {
			it := newIssue(CodeUnknownField, childPointer(path, k), n.TypeName, fmt.Sprintf("'%s' has no field '%s'", n.TypeName, k))
			it.Params = map[string]any{"key": k}
			iss = AppendIssues(iss, it)
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}

	for _, f := range n.Fields {
		p := childPointer(path, f.Name)
		v, present := m[f.Name]
		var flags Presence
		switch {
		case present:
			flags = PresenceSeen
			if v == nil {
				flags |= PresenceWasNull
			}
		case f.HasDefault:
			flags = PresenceDefaultApplied
			v = engine.DeepCopy(f.Default)
		default:
			continue
		}
		out, err := nz.value(f.Value, v, p)
		if err != nil {
			return nil, err
		}
		s.keys = append(s.keys, f.Name)
		s.values[f.Name] = out
		s.presence[f.Name] = flags
	}
	return s, nil
}

// value normalizes one field value. Shapes that do not fit vs are passed
// through so validation can report them.
func (nz *normalizer) value(vs *ValueSchema, raw any, path string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch vs.Kind {
	case KindRef:
		if _, ok := asObject(raw); !ok {
			return engine.DeepCopy(raw), nil
		}
		return nz.object(vs.Node, raw, path)
	case KindList:
		l, ok := engine.AsList(raw)
		if !ok {
			return engine.DeepCopy(raw), nil
		}
		out := make([]any, len(l))
		for i, x := range l {
			v, err := nz.value(vs.Elem, x, joinPointer(path, "/"+itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindMap:
		m, ok := raw.(map[string]any)
		if !ok {
			return engine.DeepCopy(raw), nil
		}
		out := make(map[string]any, len(m))
		for k, x := range m {
			v, err := nz.value(vs.Elem, x, childPointer(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case KindUnion:
		// A variant that accepted the object's shape decides the outcome
		// when nothing matches fully: its normalized spec goes on to
		// validation, or its resolution and unknown-field errors surface.
		var (
			nested    any
			nestedErr error
		)
		for _, variant := range vs.Variants {
			out, err := nz.value(variant, raw, path)
			if err != nil {
				if nestedErr == nil {
					nestedErr = err
				}
				continue
			}
			vd := &validator{failFast: true}
			if vd.value(variant, out, path, ""); len(vd.iss) == 0 {
				return out, nil
			}
			if _, ok := out.(*Spec); ok && nested == nil {
				nested = out
			}
		}
		if nested != nil {
			return nested, nil
		}
		if nestedErr != nil {
			return nil, nestedErr
		}
		return engine.DeepCopy(plain(raw)), nil
	case KindAny:
		return engine.DeepCopy(plain(raw)), nil
	}
	return engine.NormalizeNumber(raw), nil
}

// rebaseErr moves the paths of an Issues error under base.
func rebaseErr(base string, err error) error {
	if iss, ok := AsIssues(err); ok {
		return rebase(base, iss)
	}
	return err
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any, *Spec:
		return "object"
	}
	if engine.IsNumber(v) {
		return "number"
	}
	if _, ok := engine.AsList(v); ok {
		return "list"
	}
	return fmt.Sprintf("%T", v)
}
