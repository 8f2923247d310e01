package source_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/source"
)

func TestJSON_DecodesNumbersAndNesting(t *testing.T) {
	v, err := source.JSON([]byte(`{"name":"Ada","age":36,"ratio":0.5,"tags":["a"],"pet":{"type":"Dog"}}`), source.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"name":  "Ada",
		"age":   int64(36),
		"ratio": 0.5,
		"tags":  []any{"a"},
		"pet":   map[string]any{"type": "Dog"},
	}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v", v)
	}
}

func TestJSON_DuplicateKeys(t *testing.T) {
	data := []byte(`{"a":{"b":1,"b":2}}`)
	_, err := source.JSON(data, source.Options{})
	if !errors.Is(err, artisan.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	iss, _ := artisan.AsIssues(err)
	if iss[0].Code != artisan.CodeDuplicateKey || iss[0].Path != "/a/b" {
		t.Fatalf("issue: %+v", iss[0])
	}

	v, err := source.JSON(data, source.Options{Duplicates: source.DuplicateLastWins})
	if err != nil {
		t.Fatalf("last wins: %v", err)
	}
	if v.(map[string]any)["a"].(map[string]any)["b"] != int64(2) {
		t.Fatalf("expected last value, got %v", v)
	}
}

func TestJSON_DepthAndSyntax(t *testing.T) {
	_, err := source.JSON([]byte(`{"a":[[1]]}`), source.Options{MaxDepth: 2})
	iss, ok := artisan.AsIssues(err)
	if !ok || iss[0].Code != artisan.CodeTooDeep || iss[0].Path != "/a/0" {
		t.Fatalf("expected too_deep at /a/0, got %v", err)
	}
	if _, err := source.JSON([]byte(`{"a":`), source.Options{}); !errors.Is(err, artisan.ErrDecode) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := source.JSON([]byte(`{} {}`), source.Options{}); !errors.Is(err, artisan.ErrDecode) {
		t.Fatalf("expected trailing data error, got %v", err)
	}
	if _, err := source.JSONReader(strings.NewReader(`[1,2]`), source.Options{}); err != nil {
		t.Fatalf("reader: %v", err)
	}
}

func TestYAML_DecodesAndRejectsDuplicates(t *testing.T) {
	v, err := source.YAML([]byte("name: Ada\nage: 36\nratio: 0.5\nnote: null\ntags: [a, b]\n"), source.Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"name": "Ada", "age": int64(36), "ratio": 0.5, "note": nil, "tags": []any{"a", "b"}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v", v)
	}

	_, err = source.YAML([]byte("a: 1\nb:\n  c: 1\n  c: 2\n"), source.Options{})
	iss, ok := artisan.AsIssues(err)
	if !ok || iss[0].Code != artisan.CodeDuplicateKey || iss[0].Path != "/b/c" {
		t.Fatalf("expected duplicate at /b/c, got %v", err)
	}
	var dup *source.DuplicateKeyError
	if !errors.As(iss[0].Cause, &dup) || dup.Line != 4 || dup.FirstLine != 3 {
		t.Fatalf("positions: %+v", dup)
	}
}

func TestYAMLAll_MultipleDocuments(t *testing.T) {
	docs, err := source.YAMLAll([]byte("a: 1\n---\nb: 2\n"), source.Options{})
	if err != nil || len(docs) != 2 {
		t.Fatalf("docs: %v, %v", docs, err)
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]source.Format{
		"spec.yaml": source.FormatYAML,
		"spec.YML":  source.FormatYAML,
		"spec.json": source.FormatJSON,
		"spec":      source.FormatJSON,
	}
	for path, want := range cases {
		if got := source.FormatFromPath(path); got != want {
			t.Fatalf("%s: got %v", path, got)
		}
	}
	if f, ok := source.ParseFormat("yml"); !ok || f != source.FormatYAML {
		t.Fatalf("parse format")
	}
}

func TestDecode_DispatchesOnFormat(t *testing.T) {
	v, err := source.Decode([]byte("x: 1"), source.FormatYAML, source.Options{})
	if err != nil || v.(map[string]any)["x"] != int64(1) {
		t.Fatalf("yaml: %v %v", v, err)
	}
	v, err = source.Decode([]byte(`{"x":1}`), source.FormatJSON, source.Options{})
	if err != nil || v.(map[string]any)["x"] != int64(1) {
		t.Fatalf("json: %v %v", v, err)
	}
}
