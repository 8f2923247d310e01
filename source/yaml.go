package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	artisan "github.com/MasonMcGill/artisan"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// YAML decodes the first document of a YAML stream.
func YAML(data []byte, opt Options) (any, error) {
	docs, err := yamlDocs(data, opt, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, decodeIssue(artisan.CodeParseError, "/", "empty document")
	}
	return docs[0], nil
}

// YAMLAll decodes every document of a YAML stream.
func YAMLAll(data []byte, opt Options) ([]any, error) {
	return yamlDocs(data, opt, -1)
}

func yamlDocs(data []byte, opt Options, limit int) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for limit < 0 || len(out) < limit {
		var root yaml.Node
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, decodeIssue(artisan.CodeParseError, "/", err.Error())
		}
		w := &yamlWalker{opt: opt}
		v, err := w.value(&root, "", 0)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type yamlWalker struct {
	opt Options
}

func (w *yamlWalker) value(n *yaml.Node, path string, depth int) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return w.value(n.Content[0], path, depth)
	case yaml.AliasNode:
		return w.value(n.Alias, path, depth)
	case yaml.MappingNode, yaml.SequenceNode:
		if w.opt.MaxDepth > 0 && depth+1 > w.opt.MaxDepth {
			it := artisan.NewIssue(artisan.CodeTooDeep, pointer(path), "", "nesting exceeds "+strconv.Itoa(w.opt.MaxDepth))
			it.Params = map[string]any{"maxDepth": w.opt.MaxDepth, "line": n.Line}
			return nil, artisan.Issues{it}
		}
		if n.Kind == yaml.SequenceNode {
			arr := make([]any, 0, len(n.Content))
			for i, c := range n.Content {
				v, err := w.value(c, path+"/"+strconv.Itoa(i), depth+1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			return arr, nil
		}
		return w.mapping(n, path, depth)
	case yaml.ScalarNode:
		return scalar(n), nil
	}
	return nil, nil
}

func (w *yamlWalker) mapping(n *yaml.Node, path string, depth int) (any, error) {
	m := make(map[string]any, len(n.Content)/2)
	first := make(map[string][2]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		key := k.Value
		child := path + "/" + escape(key)
		if pos, dup := first[key]; dup && w.opt.Duplicates == DuplicateError {
			cause := &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			it := artisan.NewIssue(artisan.CodeDuplicateKey, child, "", cause.Error())
			it.Cause = cause
			it.Params = map[string]any{"key": key, "line": k.Line, "col": k.Column}
			return nil, artisan.Issues{it}
		}
		first[key] = [2]int{k.Line, k.Column}
		val, err := w.value(v, child, depth+1)
		if err != nil {
			return nil, err
		}
		m[key] = val
	}
	return m, nil
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		// Use int64 to avoid overflow surprises; callers can coerce later
		var i int64
		if err := n.Decode(&i); err == nil {
			return i
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return f
		}
	}
	return n.Value
}

func escape(k string) string {
	b := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		switch k[i] {
		case '~':
			b = append(b, '~', '0')
		case '/':
			b = append(b, '~', '1')
		default:
			b = append(b, k[i])
		}
	}
	return string(b)
}
