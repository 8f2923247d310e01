// Package typedef loads type declarations from YAML files:
//
//	module: shapes
//	types:
//	  - name: Shape
//	    doc: A drawable shape.
//	    fields:
//	      - name: color
//	        type: enum(red, green, blue)
//	        default: red
//	  - name: Circle
//	    extends: Shape
//	    fields:
//	      - name: radius
//	        type: float
//	        constraints: {exclusiveMinimum: 0}
//
// Field types use the expression syntax of ParseExpr. Names not declared in
// the file are looked up in the external layer passed to Build.
package typedef

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/internal/engine"
)

// File is a parsed declaration file.
type File struct {
	Module string    `yaml:"module"`
	Types  []TypeDef `yaml:"types"`
}

// TypeDef declares one type.
type TypeDef struct {
	Name    string     `yaml:"name"`
	Module  string     `yaml:"module"`
	Doc     string     `yaml:"doc"`
	Extends string     `yaml:"extends"`
	Fields  []FieldDef `yaml:"fields"`
}

// FieldDef declares one field. A present default key, even null, gives the
// field a default.
type FieldDef struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Default     *yaml.Node     `yaml:"-"`
	Description string         `yaml:"description"`
	Optional    bool           `yaml:"optional"`
	Constraints map[string]any `yaml:"constraints"`
}

// UnmarshalYAML keeps the raw default node so that an explicit null stays
// distinguishable from an absent default.
func (fd *FieldDef) UnmarshalYAML(n *yaml.Node) error {
	type plain FieldDef
	var rest yaml.Node
	rest = *n
	rest.Content = nil
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch key := n.Content[i].Value; key {
		case "default":
			fd.Default = n.Content[i+1]
			continue
		case "name", "type", "description", "optional", "constraints":
		default:
			return fmt.Errorf("line %d: field %q not found in field declaration", n.Content[i].Line, key)
		}
		rest.Content = append(rest.Content, n.Content[i], n.Content[i+1])
	}
	var p plain
	if err := rest.Decode(&p); err != nil {
		return err
	}
	p.Default = fd.Default
	*fd = FieldDef(p)
	return nil
}

// Parse decodes a declaration file, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, artisan.Issues{artisan.NewIssue(artisan.CodeSchemaCompilation, "/", "", err.Error())}
	}
	return &f, nil
}

// Result holds the types a file declared, in file order, and a layer binding
// each of them by name.
type Result struct {
	Types []*artisan.Type
	Layer artisan.Layer
}

// Options configures Build.
type Options struct {
	// External resolves names the file references but does not declare.
	External artisan.Layer
	// Builds attaches construction logic by type name.
	Builds map[string]artisan.BuildFunc
	// Declare adds the types to the default root layer.
	Declare bool
}

// Load parses and builds a declaration file.
func Load(data []byte, opt Options) (*Result, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return f.Build(opt)
}

type pending struct {
	idx    int
	def    TypeDef
	fields []*Expr
}

// Build creates the declared types. Dependencies (parents and referenced
// types) are created first; cyclic dependencies are rejected because types
// are immutable once created.
func (f *File) Build(opt Options) (*Result, error) {
	var iss artisan.Issues
	fail := func(path, typeName, hint string) {
		iss = artisan.AppendIssues(iss, artisan.NewIssue(artisan.CodeSchemaCompilation, path, typeName, hint))
	}
	defs := make(map[string]*pending, len(f.Types))
	order := make([]string, 0, len(f.Types))
	for i, td := range f.Types {
		path := "/types/" + strconv.Itoa(i)
		if td.Name == "" {
			fail(path+"/name", "", "type name is required")
			continue
		}
		if _, dup := defs[td.Name]; dup {
			fail(path+"/name", td.Name, "type declared twice")
			continue
		}
		p := &pending{idx: i, def: td}
		for j, fd := range td.Fields {
			e, err := ParseExpr(fd.Type)
			if err != nil {
				fail(path+"/fields/"+strconv.Itoa(j)+"/type", td.Name, err.Error())
			}
			p.fields = append(p.fields, e)
		}
		defs[td.Name] = p
		order = append(order, td.Name)
	}
	if len(iss) > 0 {
		return nil, iss
	}

	built := map[string]*artisan.Type{}
	state := map[string]int{} // 1 visiting, 2 done
	lookup := func(name string) (*artisan.Type, bool) {
		if t, ok := built[name]; ok {
			return t, true
		}
		t, ok := opt.External[name]
		return t, ok && t != nil
	}

	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		p, local := defs[name]
		if !local {
			return nil
		}
		switch state[name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("cyclic type dependency %v", append(chain, name))
		}
		state[name] = 1
		deps := []string{}
		if p.def.Extends != "" {
			deps = append(deps, p.def.Extends)
		}
		for _, e := range p.fields {
			deps = append(deps, e.Refs()...)
		}
		for _, d := range deps {
			if err := visit(d, append(chain, name)); err != nil {
				return err
			}
		}
		t, err := f.create(p, lookup, opt)
		if err != nil {
			return err
		}
		built[name] = t
		state[name] = 2
		return nil
	}

	res := &Result{Layer: artisan.Layer{}}
	for _, name := range order {
		if err := visit(name, nil); err != nil {
			if is, ok := artisan.AsIssues(err); ok {
				return nil, is
			}
			return nil, artisan.Issues{artisan.NewIssue(artisan.CodeSchemaCompilation, "/types/"+strconv.Itoa(defs[name].idx), name, err.Error())}
		}
		res.Types = append(res.Types, built[name])
		res.Layer[name] = built[name]
	}
	return res, nil
}

func (f *File) create(p *pending, lookup func(string) (*artisan.Type, bool), opt Options) (*artisan.Type, error) {
	td := p.def
	path := "/types/" + strconv.Itoa(p.idx)
	decl := artisan.TypeDecl{Name: td.Name, Module: td.Module, Doc: td.Doc, Build: opt.Builds[td.Name]}
	if decl.Module == "" {
		decl.Module = f.Module
	}
	if td.Extends != "" {
		parent, ok := lookup(td.Extends)
		if !ok {
			return nil, artisan.Issues{artisan.NewIssue(artisan.CodeUnknownType, path+"/extends", td.Name, "unknown parent "+strconv.Quote(td.Extends))}
		}
		decl.Extends = parent
	}
	for j, fd := range td.Fields {
		fpath := path + "/fields/" + strconv.Itoa(j)
		v, err := p.fields[j].ValueType(lookup)
		if err != nil {
			return nil, artisan.Issues{artisan.NewIssue(artisan.CodeUnknownType, fpath+"/type", td.Name, err.Error())}
		}
		field := artisan.Field{
			Name:        fd.Name,
			Value:       v,
			Optional:    fd.Optional,
			Description: fd.Description,
			Constraints: fd.Constraints,
		}
		if fd.Default != nil {
			var dv any
			if err := fd.Default.Decode(&dv); err != nil {
				return nil, artisan.Issues{artisan.NewIssue(artisan.CodeSchemaCompilation, fpath+"/default", td.Name, err.Error())}
			}
			field.Default, field.HasDefault = engine.DeepCopy(dv), true
		}
		decl.Fields = append(decl.Fields, field)
	}
	if opt.Declare {
		return artisan.Declare(decl)
	}
	return artisan.NewType(decl)
}
