package dsl

import (
	artisan "github.com/MasonMcGill/artisan"
)

type typeBuilder struct {
	decl artisan.TypeDecl
}

type fieldStep struct {
	b   *typeBuilder
	idx int
}

// Type starts a declaration of a type called name.
func Type(name string) *typeBuilder {
	return &typeBuilder{decl: artisan.TypeDecl{Name: name}}
}

// Doc sets the documentation; its first paragraph becomes the summary.
func (b *typeBuilder) Doc(doc string) *typeBuilder {
	b.decl.Doc = doc
	return b
}

// Module sets the namespace used to qualify colliding names.
func (b *typeBuilder) Module(module string) *typeBuilder {
	b.decl.Module = module
	return b
}

// Extends makes the type a subtype of parent.
func (b *typeBuilder) Extends(parent *artisan.Type) *typeBuilder {
	b.decl.Extends = parent
	return b
}

// BuildWith sets the construction logic.
func (b *typeBuilder) BuildWith(fn artisan.BuildFunc) *typeBuilder {
	b.decl.Build = fn
	return b
}

// Field declares a required field; chain Default or Optional to relax it.
func (b *typeBuilder) Field(name string, v artisan.ValueType) *fieldStep {
	b.decl.Fields = append(b.decl.Fields, artisan.Field{Name: name, Value: v})
	return &fieldStep{b: b, idx: len(b.decl.Fields) - 1}
}

// Decl returns the accumulated declaration.
func (b *typeBuilder) Decl() artisan.TypeDecl { return b.decl }

// New creates the type without adding it to the default root layer.
func (b *typeBuilder) New() (*artisan.Type, error) { return artisan.NewType(b.decl) }

// MustNew is like New but panics on error.
func (b *typeBuilder) MustNew() *artisan.Type {
	t, err := b.New()
	if err != nil {
		panic(err)
	}
	return t
}

// Declare creates the type and adds it to the default root layer.
func (b *typeBuilder) Declare() (*artisan.Type, error) { return artisan.Declare(b.decl) }

// MustDeclare is like Declare but panics on error.
func (b *typeBuilder) MustDeclare() *artisan.Type { return artisan.MustDeclare(b.decl) }

func (f *fieldStep) field() *artisan.Field { return &f.b.decl.Fields[f.idx] }

// Default sets a default for the current field, which makes it optional.
func (f *fieldStep) Default(v any) *fieldStep {
	fd := f.field()
	fd.Default, fd.HasDefault = v, true
	return f
}

// Optional lets the current field be absent without a default.
func (f *fieldStep) Optional() *fieldStep {
	f.field().Optional = true
	return f
}

// Describe sets the current field's description.
func (f *fieldStep) Describe(desc string) *fieldStep {
	f.field().Description = desc
	return f
}

// Constraint adds one JSON Schema keyword to the current field.
func (f *fieldStep) Constraint(keyword string, arg any) *fieldStep {
	fd := f.field()
	if fd.Constraints == nil {
		fd.Constraints = map[string]any{}
	}
	fd.Constraints[keyword] = arg
	return f
}

// Constraints adds several JSON Schema keywords to the current field.
func (f *fieldStep) Constraints(c map[string]any) *fieldStep {
	for k, v := range c {
		f.Constraint(k, v)
	}
	return f
}

func (f *fieldStep) Field(name string, v artisan.ValueType) *fieldStep { return f.b.Field(name, v) }
func (f *fieldStep) Doc(doc string) *typeBuilder                       { return f.b.Doc(doc) }
func (f *fieldStep) Module(module string) *typeBuilder                 { return f.b.Module(module) }
func (f *fieldStep) Extends(parent *artisan.Type) *typeBuilder         { return f.b.Extends(parent) }
func (f *fieldStep) BuildWith(fn artisan.BuildFunc) *typeBuilder       { return f.b.BuildWith(fn) }
func (f *fieldStep) Decl() artisan.TypeDecl                            { return f.b.Decl() }
func (f *fieldStep) New() (*artisan.Type, error)                       { return f.b.New() }
func (f *fieldStep) MustNew() *artisan.Type                            { return f.b.MustNew() }
func (f *fieldStep) Declare() (*artisan.Type, error)                   { return f.b.Declare() }
func (f *fieldStep) MustDeclare() *artisan.Type                        { return f.b.MustDeclare() }
