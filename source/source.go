// Package source decodes specification documents (JSON or YAML) into the
// JSON-like values artisan.Construct accepts.
//
// Duplicate keys are rejected by default so that a document never silently
// drops a setting. Failures are artisan.Issues matching artisan.ErrDecode.
package source

import (
	"path/filepath"
	"strings"

	artisan "github.com/MasonMcGill/artisan"
)

// Format names a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// DuplicatePolicy controls how repeated object keys are handled.
type DuplicatePolicy int

const (
	// DuplicateError fails decoding on the first repeated key.
	DuplicateError DuplicatePolicy = iota
	// DuplicateLastWins keeps the last occurrence.
	DuplicateLastWins
)

// Options configures decoding. The zero value rejects duplicates and does not
// limit nesting.
type Options struct {
	Duplicates DuplicatePolicy
	// MaxDepth limits container nesting; 0 disables the check.
	MaxDepth int
}

// FormatFromPath picks the format from a file extension; anything other
// than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat maps a format name ("json", "yaml", "yml").
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, true
	case "yaml", "yml":
		return FormatYAML, true
	}
	return FormatJSON, false
}

// Decode decodes a single document in the given format.
func Decode(data []byte, format Format, opt Options) (any, error) {
	if format == FormatYAML {
		return YAML(data, opt)
	}
	return JSON(data, opt)
}

func decodeIssue(code, path, hint string) artisan.Issues {
	return artisan.Issues{artisan.NewIssue(code, path, "", hint)}
}
