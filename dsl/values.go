package dsl

import artisan "github.com/MasonMcGill/artisan"

// Any accepts every value.
func Any() artisan.ValueType { return artisan.ValueType{Kind: artisan.KindAny} }

// Bool accepts booleans.
func Bool() artisan.ValueType { return artisan.ValueType{Kind: artisan.KindBool} }

// Integer accepts integral numbers.
func Integer() artisan.ValueType { return artisan.ValueType{Kind: artisan.KindInteger} }

// Float accepts any number.
func Float() artisan.ValueType { return artisan.ValueType{Kind: artisan.KindFloat} }

// String accepts strings.
func String() artisan.ValueType { return artisan.ValueType{Kind: artisan.KindString} }

// Null accepts only null.
func Null() artisan.ValueType { return artisan.ValueType{Kind: artisan.KindNull} }

// ListOf accepts lists whose items match elem.
func ListOf(elem artisan.ValueType) artisan.ValueType {
	return artisan.ValueType{Kind: artisan.KindList, Elem: &elem}
}

// MapOf accepts string-keyed objects whose values match elem.
func MapOf(elem artisan.ValueType) artisan.ValueType {
	return artisan.ValueType{Kind: artisan.KindMap, Elem: &elem}
}

// Ref accepts a nested specification of t, or of a subtype of t when t is
// abstract in the active scope.
func Ref(t *artisan.Type) artisan.ValueType {
	return artisan.ValueType{Kind: artisan.KindRef, Ref: t}
}

// Union accepts a value matching any of the variants.
func Union(variants ...artisan.ValueType) artisan.ValueType {
	return artisan.ValueType{Kind: artisan.KindUnion, Variants: variants}
}

// Nullable accepts v or null.
func Nullable(v artisan.ValueType) artisan.ValueType { return Union(v, Null()) }

// Literal accepts exactly the listed values.
func Literal(values ...any) artisan.ValueType {
	return artisan.ValueType{Kind: artisan.KindAny, Enum: values}
}

// OneOf restricts v to the listed values.
func OneOf(v artisan.ValueType, values ...any) artisan.ValueType {
	v.Enum = values
	return v
}
