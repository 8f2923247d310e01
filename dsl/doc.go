// Package dsl provides a fluent way to declare artisan types.
//
//	person := dsl.Type("Person").
//		Doc("A person.").
//		Field("name", dsl.String()).
//		Field("age", dsl.Integer()).Default(int64(0)).Constraint("minimum", 0).
//		MustDeclare()
package dsl
