package source

import (
	"bytes"
	"errors"
	"io"

	json "github.com/goccy/go-json"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/internal/engine"
)

// JSON decodes one JSON document. Numbers become int64 when integral and
// float64 otherwise.
func JSON(data []byte, opt Options) (any, error) {
	scan := engine.ScanOptions{OnDuplicate: engine.DupError, MaxDepth: opt.MaxDepth}
	if opt.Duplicates == DuplicateLastWins {
		scan.OnDuplicate = engine.DupIgnore
	}
	if issues, ok := engine.ScanJSON(data, scan); !ok {
		iss := make(artisan.Issues, 0, len(issues))
		for _, it := range issues {
			iss = append(iss, artisan.NewIssue(it.Code, pointer(it.Path), "", it.Message))
		}
		return nil, iss
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, decodeIssue(artisan.CodeParseError, "/", "empty document")
		}
		return nil, decodeIssue(artisan.CodeParseError, "/", err.Error())
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, decodeIssue(artisan.CodeParseError, "/", "trailing data after the document")
	}
	return engine.DeepCopy(v), nil
}

// JSONReader reads r fully and decodes it with JSON.
func JSONReader(r io.Reader, opt Options) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return JSON(data, opt)
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
