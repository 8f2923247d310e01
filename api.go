package artisan

import (
	"context"
)

// Builder replaces the final build step of Construct. It receives the
// concrete type and its validated specification.
type Builder func(ctx context.Context, t *Type, s *Spec) (any, error)

// ---- Construction-time context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyBuilder
)

// WithFailFast returns a child context that stops validation at the first
// issue instead of collecting all of them.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current construction should stop on the
// first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}

// WithBuilder returns a child context whose constructions finish with b
// instead of each type's own build logic.
func WithBuilder(ctx context.Context, b Builder) context.Context {
	return context.WithValue(ctx, _ctxKeyBuilder, b)
}

func builderFrom(ctx context.Context) Builder {
	if b, ok := ctx.Value(_ctxKeyBuilder).(Builder); ok && b != nil {
		return b
	}
	return defaultBuilder
}

// defaultBuilder runs the type's BuildFunc, or returns the specification
// itself when the type has none.
func defaultBuilder(ctx context.Context, t *Type, s *Spec) (any, error) {
	if t.build == nil {
		return s, nil
	}
	return t.build(ctx, s)
}
