package middleware

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/source"
)

// ctxKeySpec is a typed context key for storing a validated specification.
type ctxKeySpec struct{}

// ContextWithSpec attaches a validated specification to the context.
func ContextWithSpec(ctx context.Context, s *artisan.Spec) context.Context {
	return context.WithValue(ctx, ctxKeySpec{}, s)
}

// SpecFromContext retrieves the specification stored by ContextWithSpec.
func SpecFromContext(ctx context.Context) (*artisan.Spec, bool) {
	s, ok := ctx.Value(ctxKeySpec{}).(*artisan.Spec)
	return s, ok && s != nil
}

// ScopeFunc picks the scope a request is served under.
type ScopeFunc func(r *http.Request) *artisan.Scope

// Options configures the handlers. The zero value serves under the scope of
// the request context (the default root scope unless something upstream set
// one), rejects duplicate keys and collects all issues.
type Options struct {
	Scope    ScopeFunc
	Source   source.Options
	FailFast bool
	// MaxBodyBytes caps request bodies; 0 means 1 MiB.
	MaxBodyBytes int64
	Metrics      *Metrics
}

// DefaultOptions returns a recommended default for HTTP JSON boundaries.
// - Duplicate keys are errors
// - Nesting is limited to 64 levels
func DefaultOptions() Options {
	return Options{Source: source.Options{Duplicates: source.DuplicateError, MaxDepth: 64}}
}

func (o Options) context(r *http.Request) context.Context {
	ctx := r.Context()
	if o.Scope != nil {
		if s := o.Scope(r); s != nil {
			ctx = artisan.WithScope(ctx, s)
		}
	}
	if o.FailFast {
		ctx = artisan.WithFailFast(ctx, true)
	}
	return ctx
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []artisan.Issue) map[string]any {
	return map[string]any{"issues": issues}
}

// StatusFor maps an error to the response status: 400 for undecodable
// bodies, 422 for every other issue of the taxonomy, 500 otherwise.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, artisan.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, artisan.ErrSchemaCompilation), errors.Is(err, artisan.ErrReservedFieldName):
		return http.StatusInternalServerError
	}
	if iss, ok := artisan.AsIssues(err); ok {
		if _, failed := iss.First(artisan.CodeBuildFailed); failed {
			return http.StatusInternalServerError
		}
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// WriteError writes err as an issues payload.
func WriteError(w http.ResponseWriter, err error) {
	iss, ok := artisan.AsIssues(err)
	if !ok {
		iss = artisan.Issues{{Path: "/", Code: "internal", Message: err.Error()}}
	}
	WriteJSON(w, StatusFor(err), ErrorPayload(iss))
}

// WriteJSON encodes v before committing status, so a value that fails to
// encode is answered with a 500 issues payload instead of a truncated body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(ErrorPayload(artisan.Issues{{Path: "/", Code: "encode_failed", Message: err.Error()}}))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
