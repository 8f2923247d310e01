package artisan

import (
	"context"
	"fmt"
)

// Construct turns raw into an instance of target or of the subtype raw's
// "type" tag selects.
//
// The steps run in order under the scope carried by ctx: resolve the
// concrete type, compile its node, normalize raw, validate, build. Each step
// fails before the next starts, so a failed construction has no side effects
// beyond what the build logic itself does.
func Construct(ctx context.Context, target *Type, raw any) (any, error) {
	s, err := Validate(ctx, target, raw)
	if err != nil {
		return nil, err
	}
	return Build(ctx, s)
}

// ConstructAs is Construct with the result asserted to T.
func ConstructAs[T any](ctx context.Context, target *Type, raw any) (T, error) {
	var zero T
	v, err := Construct(ctx, target, raw)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("artisan: %s built %T, want %T", target.name, v, zero)
	}
	return out, nil
}

// Validate runs every step of Construct except the build and returns the
// normalized specification.
func Validate(ctx context.Context, target *Type, raw any) (*Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, singleIssue(CodeUnknownType, "/", "", "nil target type")
	}
	sc := ScopeFrom(ctx)
	if raw == nil {
		raw = map[string]any{}
	}
	m, ok := asObject(raw)
	if !ok {
		return nil, singleIssue(CodeInvalidType, "/", target.name, fmt.Sprintf("specification must be an object, got %s", describe(raw)))
	}
	concrete := target
	if !target.ownsField(TagField) || sc.IsAbstract(target) {
		t, err := ResolveType(sc, target, m[TagField])
		if err != nil {
			return nil, err
		}
		concrete = t
	}
	n, err := Compile(sc, concrete)
	if err != nil {
		return nil, err
	}
	s, err := (&normalizer{}).object(n, m, "/")
	if err != nil {
		return nil, err
	}
	if err := validateSpec(s, IsFailFast(ctx)); err != nil {
		return nil, err
	}
	return s, nil
}

// Build runs the final step of Construct on an already validated
// specification. Build logic uses it to construct nested specifications.
func Build(ctx context.Context, s *Spec) (any, error) {
	if s == nil {
		return nil, nil
	}
	v, err := builderFrom(ctx)(ctx, s.Type(), s)
	if err != nil {
		if _, ok := AsIssues(err); ok {
			return nil, err
		}
		it := newIssue(CodeBuildFailed, s.path, s.typeName, err.Error())
		it.Cause = err
		return nil, Issues{it}
	}
	return v, nil
}
