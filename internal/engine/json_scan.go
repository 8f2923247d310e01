package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling in the scanners.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// ScanOptions configures ScanJSON.
type ScanOptions struct {
	OnDuplicate DuplicateStrictness
	// MaxDepth limits container nesting; 0 disables the check.
	MaxDepth int
	// MaxIssues caps reported issues; 0 means unlimited.
	MaxIssues int
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type scanFrame struct {
	kind         containerKind
	path         string
	keys         map[string]struct{}
	expectingKey bool
	pendingKey   string
	nextIndex    int
}

// ScanJSON walks data token by token and reports duplicate object keys and
// nesting beyond MaxDepth. Syntax errors are returned as a parse_error issue.
// The returned bool is false when a fatal issue (DupError duplicate, depth,
// parse) was found.
func ScanJSON(data []byte, opt ScanOptions) ([]SimpleIssue, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var (
		issues []SimpleIssue
		stack  []scanFrame
	)
	add := func(it SimpleIssue) bool {
		if opt.MaxIssues > 0 && len(issues) >= opt.MaxIssues {
			return false
		}
		issues = append(issues, it)
		return true
	}
	// valuePath returns the pointer of the value about to be read and
	// advances the parent frame.
	valuePath := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := &stack[len(stack)-1]
		if top.kind == kindArray {
			p := top.path + "/" + strconv.Itoa(top.nextIndex)
			top.nextIndex++
			return p
		}
		top.expectingKey = true
		return top.path + "/" + escapeToken(top.pendingKey)
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if len(stack) > 0 {
				add(SimpleIssue{Code: "parse_error", Path: "", Message: "unexpected end of JSON input"})
				return issues, false
			}
			break
		}
		if err != nil {
			add(SimpleIssue{Code: "parse_error", Path: "", Message: err.Error()})
			return issues, false
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				p := valuePath()
				if opt.MaxDepth > 0 && len(stack)+1 > opt.MaxDepth {
					add(SimpleIssue{Code: "too_deep", Path: p, Message: "nesting exceeds " + strconv.Itoa(opt.MaxDepth), Params: map[string]any{"maxDepth": opt.MaxDepth}})
					return issues, false
				}
				f := scanFrame{kind: kindArray, path: p}
				if v == '{' {
					f.kind = kindObject
					f.keys = make(map[string]struct{})
					f.expectingKey = true
				}
				stack = append(stack, f)
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == kindObject && top.expectingKey {
					if _, dup := top.keys[v]; dup && opt.OnDuplicate != DupIgnore {
						add(SimpleIssue{Code: "duplicate_key", Path: top.path + "/" + escapeToken(v), Message: "key '" + v + "' duplicated", Params: map[string]any{"key": v}})
						if opt.OnDuplicate == DupError {
							return issues, false
						}
					}
					top.keys[v] = struct{}{}
					top.expectingKey = false
					top.pendingKey = v
					continue
				}
			}
			valuePath()
		default:
			valuePath()
		}
	}
	return issues, true
}

func escapeToken(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
