package artisan

import (
	"strings"
)

// Kind enumerates the value shapes a field may declare.
type Kind int

const (
	KindAny Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindNull
	KindList  // list of Elem
	KindMap   // mapping from string to Elem
	KindRef   // another constructible type's specification
	KindUnion // any one of Variants
)

var kindNames = [...]string{"any", "boolean", "integer", "float", "string", "null", "list", "map", "ref", "union"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unsupported"
	}
	return kindNames[k]
}

// ValueType describes the declared type of a field value.
type ValueType struct {
	Kind     Kind
	Elem     *ValueType  // KindList, KindMap
	Ref      *Type       // KindRef
	Variants []ValueType // KindUnion
	// Enum restricts the value to a literal set, whatever the Kind.
	Enum []any
}

// String renders the value type in the expression syntax used by type
// declaration files (list<integer>, map<Person>, string|null).
func (v ValueType) String() string {
	var s string
	switch v.Kind {
	case KindList, KindMap:
		elem := "?"
		if v.Elem != nil {
			elem = v.Elem.String()
		}
		s = v.Kind.String() + "<" + elem + ">"
	case KindRef:
		if v.Ref == nil {
			s = "ref<?>"
		} else {
			s = v.Ref.Name()
		}
	case KindUnion:
		parts := make([]string, 0, len(v.Variants))
		for _, vv := range v.Variants {
			parts = append(parts, vv.String())
		}
		s = strings.Join(parts, "|")
	default:
		s = v.Kind.String()
	}
	if len(v.Enum) > 0 {
		s += " enum"
	}
	return s
}

// check reports the first structural problem of a declared value type.
func (v ValueType) check() string {
	switch v.Kind {
	case KindAny, KindBool, KindInteger, KindFloat, KindString, KindNull:
		return ""
	case KindList, KindMap:
		if v.Elem == nil {
			return v.Kind.String() + " without element type"
		}
		return v.Elem.check()
	case KindRef:
		if v.Ref == nil {
			return "reference to nil type"
		}
		return ""
	case KindUnion:
		if len(v.Variants) == 0 {
			return "union without variants"
		}
		for _, vv := range v.Variants {
			if msg := vv.check(); msg != "" {
				return msg
			}
		}
		return ""
	default:
		return "unsupported value kind " + v.Kind.String()
	}
}
