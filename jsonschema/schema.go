package jsonschema

import (
	json "github.com/goccy/go-json"
)

// Draft07 is the dialect URI emitted by document-level schemas.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Schema is a minimal JSON Schema representation used for export.
// Keys from Extra are merged into the output last and win over typed fields.
type Schema struct {
	// Document
	Schema string             `json:"$schema,omitempty"`
	Defs   map[string]*Schema `json:"$defs,omitempty"`
	Ref    string             `json:"$ref,omitempty"`

	// Core
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	// Default and Const are emitted only when their Has flag is set, so that
	// null stays expressible.
	Default    any  `json:"-"`
	HasDefault bool `json:"-"`
	Const      any  `json:"-"`
	HasConst   bool `json:"-"`
	Enum       []any `json:"-"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Composition
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	AllOf []*Schema `json:"allOf,omitempty"`

	Extra map[string]any `json:"-"`
}

// Map flattens s into a generic JSON object.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	m := map[string]any{}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("$schema", s.Schema)
	put("$ref", s.Ref)
	put("type", s.Type)
	put("format", s.Format)
	put("description", s.Description)
	if len(s.Defs) > 0 {
		defs := make(map[string]any, len(s.Defs))
		for k, d := range s.Defs {
			defs[k] = d.Map()
		}
		m["$defs"] = defs
	}
	if s.HasDefault {
		m["default"] = s.Default
	}
	if s.HasConst {
		m["const"] = s.Const
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, p := range s.Properties {
			props[k] = p.Map()
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	switch ap := s.AdditionalProperties.(type) {
	case nil:
	case *Schema:
		m["additionalProperties"] = ap.Map()
	default:
		m["additionalProperties"] = ap
	}
	if s.Items != nil {
		m["items"] = s.Items.Map()
	}
	if s.MinItems != nil {
		m["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		m["maxItems"] = *s.MaxItems
	}
	list := func(k string, l []*Schema) {
		if len(l) == 0 {
			return
		}
		out := make([]any, len(l))
		for i, x := range l {
			out[i] = x.Map()
		}
		m[k] = out
	}
	list("oneOf", s.OneOf)
	list("anyOf", s.AnyOf)
	list("allOf", s.AllOf)
	for k, v := range s.Extra {
		m[k] = v
	}
	return m
}

// MarshalJSON renders s with object keys in sorted order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// MarshalIndent renders s as indented JSON.
func MarshalIndent(s *Schema) ([]byte, error) {
	return json.MarshalIndent(s.Map(), "", "  ")
}
