package artisan_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	artisan "github.com/MasonMcGill/artisan"
	g "github.com/MasonMcGill/artisan/dsl"
)

type person struct {
	Name string
	Age  int64
}

func personType(t *testing.T) *artisan.Type {
	t.Helper()
	return g.Type("Person").
		Doc("A person.").
		Field("name", g.String()).
		Field("age", g.Integer()).Default(int64(0)).Constraint("minimum", 0).
		BuildWith(func(_ context.Context, s *artisan.Spec) (any, error) {
			age, _ := s.Int("age")
			return &person{Name: s.String("name"), Age: age}, nil
		}).
		MustNew()
}

func scoped(types ...*artisan.Type) context.Context {
	layer := artisan.Layer{}
	for _, ty := range types {
		layer[ty.Name()] = ty
	}
	return artisan.WithScope(context.Background(), artisan.NewScope(layer))
}

func TestConstruct_PersonAppliesDefault(t *testing.T) {
	p := personType(t)
	ctx := scoped(p)

	got, err := artisan.ConstructAs[*person](ctx, p, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if got.Name != "Ada" || got.Age != 0 {
		t.Fatalf("unexpected person: %+v", got)
	}

	s, err := artisan.Validate(ctx, p, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if s.Presence("age") != artisan.PresenceDefaultApplied || s.Presence("name") != artisan.PresenceSeen {
		t.Fatalf("presence: age=%v name=%v", s.Presence("age"), s.Presence("name"))
	}
}

func TestConstruct_PersonRejectsNegativeAgeAndMissingName(t *testing.T) {
	p := personType(t)
	ctx := scoped(p)

	_, err := artisan.Construct(ctx, p, map[string]any{"age": -1})
	if !errors.Is(err, artisan.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	iss, _ := artisan.AsIssues(err)
	if len(iss) != 2 {
		t.Fatalf("expected both issues collected, got %v", iss)
	}
	if iss[0].Path != "/age" || iss[0].Code != artisan.CodeTooSmall {
		t.Fatalf("first issue: %+v", iss[0])
	}
	if iss[1].Path != "/name" || iss[1].Code != artisan.CodeRequired {
		t.Fatalf("second issue: %+v", iss[1])
	}
}

func TestConstruct_FailFastStopsAtFirstIssue(t *testing.T) {
	p := personType(t)
	ctx := artisan.WithFailFast(scoped(p), true)

	_, err := artisan.Construct(ctx, p, map[string]any{"age": -1})
	iss, ok := artisan.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected a single issue, got %v", err)
	}
}

func TestConstruct_UnknownFieldIsRejected(t *testing.T) {
	p := personType(t)
	_, err := artisan.Construct(scoped(p), p, map[string]any{"name": "Ada", "nickname": "A"})
	if !errors.Is(err, artisan.ErrUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}
	iss, _ := artisan.AsIssues(err)
	if iss[0].Path != "/nickname" || iss[0].Type != "Person" || iss[0].Params["key"] != "nickname" {
		t.Fatalf("issue: %+v", iss[0])
	}
}

func TestConstruct_EmptyTypeAcceptsOnlyEmptySpec(t *testing.T) {
	empty := g.Type("Empty").MustNew()
	ctx := scoped(empty)
	if _, err := artisan.Construct(ctx, empty, nil); err != nil {
		t.Fatalf("empty spec: %v", err)
	}
	if _, err := artisan.Construct(ctx, empty, map[string]any{"x": 1}); !errors.Is(err, artisan.ErrUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}
}

func TestConstruct_NonObjectSpecIsInvalid(t *testing.T) {
	p := personType(t)
	if _, err := artisan.Construct(scoped(p), p, []any{1}); !errors.Is(err, artisan.ErrValidation) {
		t.Fatalf("expected invalid type, got %v", err)
	}
}

func TestConstruct_WithoutBuildReturnsSpec(t *testing.T) {
	plain := g.Type("Plain").Field("x", g.Integer()).MustNew()
	v, err := artisan.Construct(scoped(plain), plain, map[string]any{"x": 3})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	s, ok := v.(*artisan.Spec)
	if !ok {
		t.Fatalf("expected *Spec, got %T", v)
	}
	if n, _ := s.Int("x"); n != 3 {
		t.Fatalf("x = %d", n)
	}
}

func TestConstruct_BuilderOverride(t *testing.T) {
	p := personType(t)
	ctx := artisan.WithBuilder(scoped(p), func(_ context.Context, ty *artisan.Type, s *artisan.Spec) (any, error) {
		return ty.Name() + ":" + s.String("name"), nil
	})
	v, err := artisan.Construct(ctx, p, map[string]any{"name": "Ada"})
	if err != nil || v != "Person:Ada" {
		t.Fatalf("got %v, %v", v, err)
	}
}

var errBoom = errors.New("boom")

func TestConstruct_BuildErrorIsWrapped(t *testing.T) {
	bad := g.Type("Bad").BuildWith(func(context.Context, *artisan.Spec) (any, error) { return nil, errBoom }).MustNew()
	_, err := artisan.Construct(scoped(bad), bad, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	iss, _ := artisan.AsIssues(err)
	if iss[0].Code != artisan.CodeBuildFailed {
		t.Fatalf("code: %s", iss[0].Code)
	}
}

func TestConstructAs_WrongResultType(t *testing.T) {
	p := personType(t)
	if _, err := artisan.ConstructAs[string](scoped(p), p, map[string]any{"name": "Ada"}); err == nil {
		t.Fatalf("expected assertion failure")
	}
}

func TestConstruct_NestedBuild(t *testing.T) {
	p := personType(t)
	team := g.Type("Team").
		Field("lead", g.Ref(p)).
		Field("members", g.ListOf(g.Ref(p))).Default([]any{}).
		BuildWith(func(ctx context.Context, s *artisan.Spec) (any, error) {
			lead, _ := s.Spec("lead")
			v, err := artisan.Build(ctx, lead)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("team led by %s", v.(*person).Name), nil
		}).
		MustNew()
	ctx := scoped(p, team)

	v, err := artisan.Construct(ctx, team, map[string]any{"lead": map[string]any{"name": "Ada"}})
	if err != nil || v != "team led by Ada" {
		t.Fatalf("got %v, %v", v, err)
	}

	_, err = artisan.Construct(ctx, team, map[string]any{
		"lead":    map[string]any{"name": "Ada"},
		"members": []any{map[string]any{"name": "Bob"}, map[string]any{"age": 3}},
	})
	iss, ok := artisan.AsIssues(err)
	if !ok || iss[0].Path != "/members/1/name" || iss[0].Code != artisan.CodeRequired {
		t.Fatalf("expected nested required issue, got %v", err)
	}
}
