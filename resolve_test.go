package artisan_test

import (
	"context"
	"errors"
	"testing"

	artisan "github.com/MasonMcGill/artisan"
	g "github.com/MasonMcGill/artisan/dsl"
)

// hierarchy declares A with concrete subtypes B and C.
func hierarchy(t *testing.T) (a, b, c *artisan.Type, ctx context.Context) {
	t.Helper()
	a = g.Type("A").Field("x", g.Integer()).Default(int64(1)).MustNew()
	b = g.Type("B").Extends(a).Field("y", g.String()).Default("b").MustNew()
	c = g.Type("C").Extends(a).MustNew()
	return a, b, c, scoped(a, b, c)
}

func TestResolveType_AbstractSelectsSubtype(t *testing.T) {
	a, b, _, ctx := hierarchy(t)
	s, err := artisan.Validate(ctx, a, map[string]any{"type": "B"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if s.Type() != b || s.TypeName() != "B" {
		t.Fatalf("resolved %v (%s)", s.Type(), s.TypeName())
	}
	if x, _ := s.Int("x"); x != 1 {
		t.Fatalf("inherited default not applied: %v", x)
	}
	if s.String("y") != "b" {
		t.Fatalf("y = %q", s.String("y"))
	}
}

func TestResolveType_Failures(t *testing.T) {
	a, b, c, ctx := hierarchy(t)
	sc := artisan.ScopeFrom(ctx)

	cases := []struct {
		name   string
		target *artisan.Type
		tag    any
		want   error
	}{
		{"missing tag on abstract", a, nil, artisan.ErrMissingTypeTag},
		{"unknown key", a, "D", artisan.ErrUnknownType},
		{"abstract names itself", a, "A", artisan.ErrAmbiguousType},
		{"concrete names a sibling", b, "C", artisan.ErrTypeMismatch},
		{"handle outside hierarchy", a, g.Type("Z").MustNew(), artisan.ErrTypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := artisan.ResolveType(sc, tc.target, tc.tag)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if got, err := artisan.ResolveType(sc, c, nil); err != nil || got != c {
		t.Fatalf("concrete without tag: %v, %v", got, err)
	}
	if got, err := artisan.ResolveType(sc, b, "B"); err != nil || got != b {
		t.Fatalf("concrete naming itself: %v, %v", got, err)
	}
	if got, err := artisan.ResolveType(sc, a, c); err != nil || got != c {
		t.Fatalf("handle bypasses lookup: %v, %v", got, err)
	}
}

func TestConstruct_ResolutionFailures(t *testing.T) {
	a, _, _, ctx := hierarchy(t)
	cases := []struct {
		name string
		in   map[string]any
		want error
	}{
		{"unknown key", map[string]any{"type": "D"}, artisan.ErrUnknownType},
		{"missing tag", map[string]any{"x": 2}, artisan.ErrMissingTypeTag},
		{"abstract tag", map[string]any{"type": "A"}, artisan.ErrAmbiguousType},
		{"non-string tag", map[string]any{"type": 7}, artisan.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := artisan.Construct(ctx, a, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			iss, _ := artisan.AsIssues(err)
			if iss[0].Path != "/type" {
				t.Fatalf("path %s", iss[0].Path)
			}
		})
	}
}

func TestResolveType_MidLevelAbstractIsAmbiguous(t *testing.T) {
	a, b, c, _ := hierarchy(t)
	d := g.Type("D").Extends(b).MustNew()
	ctx := scoped(a, b, c, d)

	if _, err := artisan.Validate(ctx, a, map[string]any{"type": "B"}); !errors.Is(err, artisan.ErrAmbiguousType) {
		t.Fatalf("expected ambiguity, got %v", err)
	}
	s, err := artisan.Validate(ctx, a, map[string]any{"type": "D", "y": "d"})
	if err != nil || s.Type() != d {
		t.Fatalf("grandchild: %v, %v", s, err)
	}
}

func TestResolveType_NestedAbstractField(t *testing.T) {
	a, b, c, _ := hierarchy(t)
	holder := g.Type("Holder").Field("item", g.Ref(a)).Field("items", g.ListOf(g.Ref(a))).Optional().MustNew()
	ctx := scoped(a, b, c, holder)

	s, err := artisan.Validate(ctx, holder, map[string]any{
		"item":  map[string]any{"type": "C", "x": 5},
		"items": []any{map[string]any{"type": "B"}, map[string]any{"type": "C"}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	item, _ := s.Spec("item")
	if item.Type() != c {
		t.Fatalf("item type %v", item.Type())
	}

	_, err = artisan.Validate(ctx, holder, map[string]any{"item": map[string]any{"x": 5}})
	iss, _ := artisan.AsIssues(err)
	if !errors.Is(err, artisan.ErrMissingTypeTag) || iss[0].Path != "/item/type" {
		t.Fatalf("expected nested missing tag at /item/type, got %v", err)
	}
}

func TestResolveType_ConcreteOwnTypeFieldIsData(t *testing.T) {
	kind := g.Type("Labeled").Field("type", g.String()).MustNew()
	s, err := artisan.Validate(scoped(kind), kind, map[string]any{"type": "anything"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if s.String("type") != "anything" {
		t.Fatalf("type field lost: %v", s.AsMap())
	}
}

func TestResolveType_AbstractReservesTypeField(t *testing.T) {
	base := g.Type("Base").Field("type", g.String()).MustNew()
	sub := g.Type("Sub").Extends(base).MustNew()
	ctx := scoped(base, sub)
	if _, err := artisan.Construct(ctx, base, map[string]any{"type": "Sub"}); !errors.Is(err, artisan.ErrReservedFieldName) {
		t.Fatalf("expected reserved field error, got %v", err)
	}
}
