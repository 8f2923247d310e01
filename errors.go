package artisan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MasonMcGill/artisan/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeSchemaCompilation = "schema_compilation"
	CodeReservedField     = "reserved_field"
	CodeUnknownType       = "unknown_type"
	CodeEmptyScope        = "empty_scope"
	CodeMissingTypeTag    = "missing_type_tag"
	CodeTypeMismatch      = "type_mismatch"
	CodeAmbiguousType     = "ambiguous_type"
	CodeUnknownField      = "unknown_field"
	// Validation codes; all of them match ErrValidation.
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidConst  = "invalid_const"
	CodeNotMultiple   = "not_multiple"
	CodeNotUnique     = "not_unique"
	CodeUnionNoMatch  = "union_no_match"
	CodeBuildFailed   = "build_failed"
	CodeBadConstraint = "bad_constraint"
	// Decoding codes; all of them match ErrDecode.
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTooDeep      = "too_deep"
)

// Sentinel errors forming the failure taxonomy. Issues returned by this
// package match them through errors.Is.
var (
	ErrSchemaCompilation = errors.New("artisan: schema compilation failed")
	ErrReservedFieldName = errors.New("artisan: reserved field name")
	ErrUnknownType       = errors.New("artisan: unknown type")
	ErrEmptyScope        = errors.New("artisan: no scope layer to pop")
	ErrMissingTypeTag    = errors.New("artisan: missing type tag")
	ErrTypeMismatch      = errors.New("artisan: type mismatch")
	ErrAmbiguousType     = errors.New("artisan: ambiguous type")
	ErrUnknownField      = errors.New("artisan: unknown field")
	ErrValidation        = errors.New("artisan: validation failed")
	ErrDecode            = errors.New("artisan: cannot decode specification")
)

// Sentinel returns the taxonomy error a code belongs to, or nil for codes
// outside the taxonomy (for example build_failed).
func Sentinel(code string) error {
	switch code {
	case CodeSchemaCompilation, CodeBadConstraint:
		return ErrSchemaCompilation
	case CodeReservedField:
		return ErrReservedFieldName
	case CodeUnknownType:
		return ErrUnknownType
	case CodeEmptyScope:
		return ErrEmptyScope
	case CodeMissingTypeTag:
		return ErrMissingTypeTag
	case CodeTypeMismatch:
		return ErrTypeMismatch
	case CodeAmbiguousType:
		return ErrAmbiguousType
	case CodeUnknownField:
		return ErrUnknownField
	case CodeRequired, CodeInvalidType, CodeTooSmall, CodeTooBig, CodeTooShort,
		CodeTooLong, CodePattern, CodeInvalidEnum, CodeInvalidConst,
		CodeNotMultiple, CodeNotUnique, CodeUnionNoMatch:
		return ErrValidation
	case CodeParseError, CodeDuplicateKey, CodeTooDeep:
		return ErrDecode
	}
	return nil
}

// Issue represents a single failure entry.
type Issue struct {
	Path    string `json:"path"`           // JSON Pointer of the offending field (for example: /friends/2/name).
	Code    string `json:"code"`           // One of the codes listed above.
	Type    string `json:"type,omitempty"` // Name of the type that owns the field or was being resolved.
	Message string `json:"message,omitempty"`
	Hint    string `json:"hint,omitempty"` // Optional: remediation hints, offending keys, etc.
	Cause   error  `json:"-"`              // Optional: underlying error.
	// Params carries structured parameters (e.g., {"minimum":0, "got":-1})
	// for i18n and observability.
	Params map[string]any `json:"params,omitempty"`
}

// Error renders the issue as "code at path (type): hint".
func (it Issue) Error() string {
	b := &strings.Builder{}
	path := it.Path
	if path == "" {
		path = "/"
	}
	fmt.Fprintf(b, "%s at %s", it.Code, path)
	if it.Type != "" {
		fmt.Fprintf(b, " (%s)", it.Type)
	}
	if it.Hint != "" {
		b.WriteString(": ")
		b.WriteString(it.Hint)
	}
	return b.String()
}

// Unwrap exposes Cause.
func (it Issue) Unwrap() error { return it.Cause }

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].Error())
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Is reports whether any issue belongs to the target sentinel, or whether any
// issue's cause matches target.
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if s := Sentinel(it.Code); s != nil && s == target {
			return true
		}
		if it.Cause != nil && errors.Is(it.Cause, target) {
			return true
		}
	}
	return false
}

// First returns the first issue with the given code.
func (iss Issues) First(code string) (Issue, bool) {
	for _, it := range iss {
		if it.Code == code {
			return it, true
		}
	}
	return Issue{}, false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// NewIssue builds an Issue carrying the catalogue message for code. It is
// exported for subpackages that report failures in the same model.
func NewIssue(code, path, typeName, hint string) Issue {
	return newIssue(code, path, typeName, hint)
}

// newIssue builds an Issue with the catalogue message for code.
func newIssue(code, path, typeName, hint string) Issue {
	if path == "" {
		path = "/"
	}
	return Issue{Path: path, Code: code, Type: typeName, Message: i18n.T(code, nil), Hint: hint}
}

func singleIssue(code, path, typeName, hint string) Issues {
	return Issues{newIssue(code, path, typeName, hint)}
}

// rebase prefixes child issue paths with base.
func rebase(base string, child Issues) Issues {
	out := make(Issues, 0, len(child))
	for _, it := range child {
		it.Path = joinPointer(base, it.Path)
		out = append(out, it)
	}
	return out
}

func sortIssues(iss Issues) {
	sort.SliceStable(iss, func(i, j int) bool { return iss[i].Path < iss[j].Path })
}

// joinPointer concatenates two JSON Pointers.
func joinPointer(base, p string) string {
	if base == "" || base == "/" {
		if p == "" {
			return "/"
		}
		return p
	}
	if p == "" || p == "/" {
		return base
	}
	if p[0] == '/' {
		return base + p
	}
	return base + "/" + p
}

// pointerToken escapes a key for use as a JSON Pointer reference token.
func pointerToken(k string) string {
	if !strings.ContainsAny(k, "~/") {
		return k
	}
	k = strings.ReplaceAll(k, "~", "~0")
	return strings.ReplaceAll(k, "/", "~1")
}

func childPointer(base, key string) string {
	return joinPointer(base, "/"+pointerToken(key))
}
