// Package artisan compiles typed configuration schemas and constructs objects
// from JSON-like specifications.
//
// A Type is a named field list plus build logic. Types form hierarchies via
// TypeDecl.Extends; a type with subtypes visible in the active Scope is
// abstract, and specifications for it must carry a "type" tag naming the
// concrete subtype to build.
//
// Construction runs five steps under the scope carried by the context:
//
//  1. ResolveType picks the concrete type from the target and the tag.
//  2. Compile produces the type's Node, cached per scope.
//  3. Normalize applies defaults and rejects unknown fields.
//  4. Validation checks kinds, enums and constraints.
//  5. The type's BuildFunc (or a Builder from WithBuilder) runs.
//
// Failures are reported as Issues (JSON Pointer, code, message) that match
// the sentinel errors through errors.Is.
//
// Typical usage:
//
//	person := artisan.MustDeclare(artisan.TypeDecl{
//		Name: "Person",
//		Fields: []artisan.Field{
//			{Name: "name", Value: artisan.ValueType{Kind: artisan.KindString}},
//			{Name: "age", Value: artisan.ValueType{Kind: artisan.KindInteger}, Default: int64(0), HasDefault: true},
//		},
//	})
//	v, err := artisan.Construct(ctx, person, map[string]any{"name": "Ada"})
//
// The dsl package offers a fluent way to write the same declarations.
package artisan
