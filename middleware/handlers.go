package middleware

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/jsonschema"
	"github.com/MasonMcGill/artisan/source"
)

// SchemaHandler serves the JSON Schema of target. The form query parameter
// selects "list" or "dict" documents instead of a single specification. A nil
// target describes a specification of any type in the request's scope.
func SchemaHandler(target *artisan.Type, opt Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		doc, err := exportSchema(opt.context(r), target, r.URL.Query().Get("form"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	})
}

func exportSchema(ctx context.Context, target *artisan.Type, form string) (*jsonschema.Schema, error) {
	if target == nil {
		switch form {
		case "list":
			return artisan.ListScopeSchema(ctx)
		case "dict":
			return artisan.DictScopeSchema(ctx)
		}
		return artisan.ScopeSchema(ctx)
	}
	switch form {
	case "list":
		return artisan.ListSchema(ctx, target)
	case "dict":
		return artisan.DictSchema(ctx, target)
	}
	return artisan.DocumentSchema(ctx, target)
}

// ConstructHandler decodes a POSTed specification (JSON, or YAML when the
// Content-Type says so) and constructs target from it. The constructed value
// is returned as JSON with status 201.
func ConstructHandler(target *artisan.Type, opt Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		start := time.Now()
		ctx := opt.context(r)
		raw, err := decodeBody(r, opt)
		var v any
		if err == nil {
			v, err = artisan.Construct(ctx, target, raw)
		}
		opt.Metrics.Observe(target.Name(), err, time.Since(start))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, v)
	})
}

// Validated validates the request body against target and passes the
// specification to next through the context (see SpecFromContext). Failures
// are answered directly.
func Validated(target *artisan.Type, opt Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := opt.context(r)
			raw, err := decodeBody(r, opt)
			var s *artisan.Spec
			if err == nil {
				s, err = artisan.Validate(ctx, target, raw)
			}
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSpec(ctx, s)))
		})
	}
}

func decodeBody(r *http.Request, opt Options) (any, error) {
	limit := opt.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, artisan.Issues{artisan.NewIssue(artisan.CodeParseError, "/", "", "request body too large")}
	}
	format := source.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = source.FormatYAML
		}
	}
	return source.Decode(data, format, opt.Source)
}
