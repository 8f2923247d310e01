package artisan

import (
	"fmt"
	"sort"

	"github.com/MasonMcGill/artisan/internal/engine"
)

// validator checks a normalized specification against its node. It collects
// every issue unless failFast is set.
type validator struct {
	failFast bool
	iss      Issues
}

func (vd *validator) stop() bool { return vd.failFast && len(vd.iss) > 0 }

func (vd *validator) add(code, path, typeName, hint string, params map[string]any) {
	if vd.stop() {
		return
	}
	it := newIssue(code, path, typeName, hint)
	it.Params = params
	vd.iss = AppendIssues(vd.iss, it)
}

func (vd *validator) spec(s *Spec) {
	n := s.node
	for _, f := range n.Fields {
		if vd.stop() {
			return
		}
		p := childPointer(s.path, f.Name)
		v, ok := s.values[f.Name]
		if !ok {
			if f.Required {
				vd.add(CodeRequired, p, n.TypeName, fmt.Sprintf("'%s' requires '%s'", n.TypeName, f.Name), map[string]any{"field": f.Name})
			}
			continue
		}
		vd.field(f, v, p, n.TypeName)
	}
}

// field checks a present value: its declared value type, then the field's
// constraints. A null value is accepted when the declared default is null.
func (vd *validator) field(f *FieldSchema, v any, path, owner string) {
	if v == nil && f.HasDefault && f.Default == nil {
		return
	}
	before := len(vd.iss)
	vd.value(f.Value, v, path, owner)
	if len(vd.iss) > before || len(f.Constraints) == 0 {
		return
	}
	subject := v
	if s, ok := v.(*Spec); ok {
		subject = s.AsMap()
	}
	for _, it := range engine.Check(f.Constraints, subject, vd.failFast) {
		vd.add(it.Code, joinPointer(path, it.Path), owner, it.Message, it.Params)
	}
}

func (vd *validator) value(vs *ValueSchema, v any, path, owner string) {
	if vd.stop() {
		return
	}
	mismatch := func(want string) {
		vd.add(CodeInvalidType, path, owner, fmt.Sprintf("expected %s, got %s", want, describe(v)), map[string]any{"expected": want})
	}
	switch vs.Kind {
	case KindAny:
	case KindBool:
		if _, ok := v.(bool); !ok {
			mismatch("boolean")
			return
		}
	case KindInteger:
		if _, isBool := v.(bool); isBool {
			mismatch("integer")
			return
		}
		if _, ok := engine.ToInt(v); !ok {
			mismatch("integer")
			return
		}
	case KindFloat:
		if !engine.IsNumber(v) {
			mismatch("number")
			return
		}
	case KindString:
		if _, ok := v.(string); !ok {
			mismatch("string")
			return
		}
	case KindNull:
		if v != nil {
			mismatch("null")
			return
		}
	case KindList:
		l, ok := v.([]any)
		if !ok {
			mismatch("list")
			return
		}
		for i, x := range l {
			vd.value(vs.Elem, x, joinPointer(path, "/"+itoa(i)), owner)
		}
	case KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			mismatch("object")
			return
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			vd.value(vs.Elem, m[k], childPointer(path, k), owner)
		}
	case KindRef:
		s, ok := v.(*Spec)
		if !ok {
			mismatch("'" + vs.Node.TypeName + "' object")
			return
		}
		if !s.node.Type.IsSubtypeOf(vs.Node.Type) {
			vd.add(CodeTypeMismatch, path, owner, fmt.Sprintf("'%s' is not a '%s'", s.typeName, vs.Node.TypeName), nil)
			return
		}
		vd.spec(s)
	case KindUnion:
		for _, variant := range vs.Variants {
			trial := &validator{failFast: true}
			if trial.value(variant, v, path, owner); len(trial.iss) == 0 {
				vd.enum(vs, v, path, owner)
				return
			}
		}
		// A nested specification reports its own issues.
		if s, ok := v.(*Spec); ok {
			for _, variant := range vs.Variants {
				if variant.Kind == KindRef && s.node.Type.IsSubtypeOf(variant.Node.Type) {
					vd.value(variant, v, path, owner)
					return
				}
			}
		}
		vd.add(CodeUnionNoMatch, path, owner, fmt.Sprintf("%s matches no variant", describe(v)), nil)
		return
	}
	vd.enum(vs, v, path, owner)
}

func (vd *validator) enum(vs *ValueSchema, v any, path, owner string) {
	if len(vs.Enum) == 0 || engine.InEnum(vs.Enum, v) {
		return
	}
	vd.add(CodeInvalidEnum, path, owner, fmt.Sprintf("must be one of %v", vs.Enum), map[string]any{"enum": vs.Enum, "got": v})
}

// validateSpec runs the validator over a normalized specification and
// returns the issues sorted by path.
func validateSpec(s *Spec, failFast bool) error {
	vd := &validator{failFast: failFast}
	vd.spec(s)
	if len(vd.iss) == 0 {
		return nil
	}
	sortIssues(vd.iss)
	return vd.iss
}
