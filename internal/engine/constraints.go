package engine

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"sync"
	"unicode/utf8"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
// Path is relative to the value being checked ("" for the value itself).
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Params  map[string]any
}

// Keywords lists the constraint keywords the checker enforces. Other keys in
// a constraint map are carried into schemas but never evaluated.
var Keywords = []string{
	"const", "enum", "exclusiveMaximum", "exclusiveMinimum", "maxItems",
	"maxLength", "maxProperties", "maximum", "minItems", "minLength",
	"minProperties", "minimum", "multipleOf", "pattern", "uniqueItems",
}

var patterns sync.Map // string -> *regexp.Regexp

func compilePattern(p string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patterns.Store(p, re)
	return re, nil
}

// CheckShape reports constraint entries whose argument cannot be enforced,
// in keyword order.
func CheckShape(c map[string]any) []SimpleIssue {
	var out []SimpleIssue
	bad := func(k, msg string) {
		out = append(out, SimpleIssue{Code: "bad_constraint", Path: "", Message: k + ": " + msg, Params: map[string]any{"keyword": k}})
	}
	for _, k := range sortedKeys(c) {
		arg := c[k]
		switch k {
		case "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum":
			if !IsNumber(arg) {
				bad(k, "must be a number")
			}
		case "multipleOf":
			if f, ok := ToFloat(arg); !ok || f <= 0 {
				bad(k, "must be a positive number")
			}
		case "minLength", "maxLength", "minItems", "maxItems", "minProperties", "maxProperties":
			if n, ok := ToInt(arg); !ok || n < 0 {
				bad(k, "must be a non-negative integer")
			}
		case "pattern":
			s, ok := arg.(string)
			if !ok {
				bad(k, "must be a string")
				continue
			}
			if _, err := compilePattern(s); err != nil {
				bad(k, err.Error())
			}
		case "enum":
			if _, ok := AsList(arg); !ok {
				bad(k, "must be a list")
			}
		case "uniqueItems":
			if _, ok := arg.(bool); !ok {
				bad(k, "must be a boolean")
			}
		}
	}
	return out
}

// Check evaluates every known keyword of c against v. Keywords that do not
// apply to v's shape (minimum on a string, for instance) are skipped. When
// failFast is set, at most one issue is returned.
func Check(c map[string]any, v any, failFast bool) []SimpleIssue {
	var out []SimpleIssue
	add := func(code, msg string, params map[string]any) bool {
		out = append(out, SimpleIssue{Code: code, Message: msg, Params: params})
		return failFast
	}
	for _, k := range sortedKeys(c) {
		arg := c[k]
		var stop bool
		switch k {
		case "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum":
			x, ok := ToFloat(v)
			lim, lok := ToFloat(arg)
			if !ok || !lok {
				continue
			}
			switch {
			case k == "minimum" && x < lim:
				stop = add("too_small", fmt.Sprintf("must be >= %v", arg), map[string]any{"minimum": arg, "got": v})
			case k == "exclusiveMinimum" && x <= lim:
				stop = add("too_small", fmt.Sprintf("must be > %v", arg), map[string]any{"exclusiveMinimum": arg, "got": v})
			case k == "maximum" && x > lim:
				stop = add("too_big", fmt.Sprintf("must be <= %v", arg), map[string]any{"maximum": arg, "got": v})
			case k == "exclusiveMaximum" && x >= lim:
				stop = add("too_big", fmt.Sprintf("must be < %v", arg), map[string]any{"exclusiveMaximum": arg, "got": v})
			}
		case "multipleOf":
			x, ok := ToFloat(v)
			m, mok := ToFloat(arg)
			if !ok || !mok || m <= 0 {
				continue
			}
			q := x / m
			if math.Abs(q-math.Round(q)) > 1e-9 {
				stop = add("not_multiple", fmt.Sprintf("must be a multiple of %v", arg), map[string]any{"multipleOf": arg, "got": v})
			}
		case "minLength", "maxLength":
			s, ok := v.(string)
			lim, lok := ToInt(arg)
			if !ok || !lok {
				continue
			}
			n := int64(utf8.RuneCountInString(s))
			if k == "minLength" && n < lim {
				stop = add("too_short", fmt.Sprintf("length must be >= %d", lim), map[string]any{"minLength": lim, "got": n})
			} else if k == "maxLength" && n > lim {
				stop = add("too_long", fmt.Sprintf("length must be <= %d", lim), map[string]any{"maxLength": lim, "got": n})
			}
		case "pattern":
			s, ok := v.(string)
			p, pok := arg.(string)
			if !ok || !pok {
				continue
			}
			re, err := compilePattern(p)
			if err == nil && !re.MatchString(s) {
				stop = add("pattern", "must match "+p, map[string]any{"pattern": p})
			}
		case "enum":
			allowed, ok := AsList(arg)
			if !ok {
				continue
			}
			if !contains(allowed, v) {
				stop = add("invalid_enum", fmt.Sprintf("must be one of %v", allowed), map[string]any{"enum": allowed, "got": v})
			}
		case "const":
			if !Equal(arg, v) {
				stop = add("invalid_const", fmt.Sprintf("must equal %v", arg), map[string]any{"const": arg, "got": v})
			}
		case "minItems", "maxItems":
			l, ok := v.([]any)
			lim, lok := ToInt(arg)
			if !ok || !lok {
				continue
			}
			n := int64(len(l))
			if k == "minItems" && n < lim {
				stop = add("too_short", fmt.Sprintf("must have >= %d items", lim), map[string]any{"minItems": lim, "got": n})
			} else if k == "maxItems" && n > lim {
				stop = add("too_long", fmt.Sprintf("must have <= %d items", lim), map[string]any{"maxItems": lim, "got": n})
			}
		case "uniqueItems":
			l, ok := v.([]any)
			if !ok || arg != true {
				continue
			}
			for i := 1; i < len(l); i++ {
				if contains(l[:i], l[i]) {
					stop = add("not_unique", fmt.Sprintf("item %d repeats an earlier item", i), map[string]any{"index": i})
					break
				}
			}
		case "minProperties", "maxProperties":
			m, ok := v.(map[string]any)
			lim, lok := ToInt(arg)
			if !ok || !lok {
				continue
			}
			n := int64(len(m))
			if k == "minProperties" && n < lim {
				stop = add("too_short", fmt.Sprintf("must have >= %d properties", lim), map[string]any{"minProperties": lim, "got": n})
			} else if k == "maxProperties" && n > lim {
				stop = add("too_long", fmt.Sprintf("must have <= %d properties", lim), map[string]any{"maxProperties": lim, "got": n})
			}
		}
		if stop {
			break
		}
	}
	return out
}

// InEnum reports whether v equals one of allowed.
func InEnum(allowed []any, v any) bool { return contains(allowed, v) }

func contains(l []any, v any) bool {
	for _, x := range l {
		if Equal(x, v) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
