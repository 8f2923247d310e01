package artisan

import "fmt"

// ResolveType selects the concrete type a specification constructs when the
// caller asked for target. tag is the specification's "type" entry: nil when
// absent, a registry key, or a *Type handle.
//
// A concrete target accepts no tag or a tag naming the target itself. An
// abstract target requires a tag naming a concrete subtype visible in s.
func ResolveType(s *Scope, target *Type, tag any) (*Type, error) {
	if target == nil {
		return nil, singleIssue(CodeUnknownType, "/", "", "nil target type")
	}
	name := func() string {
		if k, ok := s.NameOf(target); ok {
			return k
		}
		return target.name
	}
	var resolved *Type
	switch v := tag.(type) {
	case nil:
		if !s.IsAbstract(target) {
			return target, nil
		}
		return nil, singleIssue(CodeMissingTypeTag, "/"+TagField, name(),
			fmt.Sprintf("'%s' is abstract; set \"type\" to one of %v", name(), s.concreteSubtypes(target)))
	case *Type:
		if v == nil {
			return ResolveType(s, target, nil)
		}
		resolved = v
	case string:
		t, err := s.Resolve(v)
		if err != nil {
			return nil, err
		}
		resolved = t
	default:
		return nil, singleIssue(CodeInvalidType, "/"+TagField, name(), fmt.Sprintf("type tag must be a string, got %T", tag))
	}
	if !s.IsAbstract(target) {
		if resolved != target {
			return nil, singleIssue(CodeTypeMismatch, "/"+TagField, name(),
				fmt.Sprintf("tag names '%s', which is not '%s'", resolved.name, target.name))
		}
		return target, nil
	}
	if !resolved.IsSubtypeOf(target) {
		return nil, singleIssue(CodeTypeMismatch, "/"+TagField, name(),
			fmt.Sprintf("'%s' is not a subtype of '%s'", resolved.name, target.name))
	}
	if s.IsAbstract(resolved) {
		return nil, singleIssue(CodeAmbiguousType, "/"+TagField, name(),
			fmt.Sprintf("'%s' is abstract; choose one of %v", resolved.name, s.concreteSubtypes(resolved)))
	}
	return resolved, nil
}

// concreteSubtypes lists the keys of t's subtypes that are concrete in s.
func (s *Scope) concreteSubtypes(t *Type) []string {
	var out []string
	m := s.active()
	for _, k := range s.Subtypes(t) {
		if !s.IsAbstract(m[k]) {
			out = append(out, k)
		}
	}
	return out
}
