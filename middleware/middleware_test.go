package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	artisan "github.com/MasonMcGill/artisan"
	g "github.com/MasonMcGill/artisan/dsl"
	"github.com/MasonMcGill/artisan/middleware"
)

func greeter(t *testing.T) (*artisan.Type, middleware.Options) {
	t.Helper()
	ty := g.Type("Greeter").
		Field("name", g.String()).Constraint("minLength", 1).
		Field("loud", g.Bool()).Default(false).
		BuildWith(func(_ context.Context, s *artisan.Spec) (any, error) {
			if s.String("name") == "crash" {
				return nil, errors.New("cannot greet")
			}
			msg := "hello " + s.String("name")
			if s.Bool("loud") {
				msg = strings.ToUpper(msg)
			}
			return map[string]any{"message": msg}, nil
		}).
		MustNew()
	scope := artisan.NewScope(artisan.Layer{"Greeter": ty})
	opt := middleware.DefaultOptions()
	opt.Scope = func(*http.Request) *artisan.Scope { return scope }
	return ty, opt
}

func post(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConstructHandler_Statuses(t *testing.T) {
	ty, opt := greeter(t)
	reg := prometheus.NewRegistry()
	opt.Metrics = middleware.NewMetrics(reg)
	h := middleware.ConstructHandler(ty, opt)

	cases := []struct {
		name        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"ok", "application/json", `{"name":"Ada"}`, http.StatusCreated, ""},
		{"yaml", "application/yaml", "name: Ada\nloud: true\n", http.StatusCreated, ""},
		{"malformed", "application/json", `{"name":`, http.StatusBadRequest, artisan.CodeParseError},
		{"duplicate key", "application/json", `{"name":"a","name":"b"}`, http.StatusBadRequest, artisan.CodeDuplicateKey},
		{"missing name", "application/json", `{}`, http.StatusUnprocessableEntity, artisan.CodeRequired},
		{"unknown field", "application/json", `{"name":"Ada","x":1}`, http.StatusUnprocessableEntity, artisan.CodeUnknownField},
		{"build failure", "application/json", `{"name":"crash"}`, http.StatusInternalServerError, artisan.CodeBuildFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(h, tc.contentType, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.status, rec.Body.String())
			}
			if tc.code == "" {
				return
			}
			var payload struct {
				Issues []struct {
					Code string `json:"code"`
				} `json:"issues"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if len(payload.Issues) == 0 || payload.Issues[0].Code != tc.code {
				t.Fatalf("issues: %s", rec.Body.String())
			}
		})
	}
}

func TestConstructHandler_RecordsOutcomes(t *testing.T) {
	ty, opt := greeter(t)
	reg := prometheus.NewRegistry()
	opt.Metrics = middleware.NewMetrics(reg)
	h := middleware.ConstructHandler(ty, opt)

	post(h, "application/json", `{"name":"Ada"}`)
	post(h, "application/json", `{"name":"Bob"}`)
	post(h, "application/json", `{}`)

	n, err := testutil.GatherAndCount(reg, "artisan_constructions_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected ok and invalid series, got %d", n)
	}
	want := `
# HELP artisan_constructions_total Total number of constructions by outcome
# TYPE artisan_constructions_total counter
artisan_constructions_total{outcome="invalid",type="Greeter"} 1
artisan_constructions_total{outcome="ok",type="Greeter"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "artisan_constructions_total"); err != nil {
		t.Fatalf("metrics: %v", err)
	}
}

func TestConstructHandler_RejectsOtherMethods(t *testing.T) {
	ty, opt := greeter(t)
	rec := httptest.NewRecorder()
	middleware.ConstructHandler(ty, opt).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "POST" {
		t.Fatalf("status %d allow %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestSchemaHandler_Forms(t *testing.T) {
	ty, opt := greeter(t)
	h := middleware.SchemaHandler(ty, opt)
	for form, wantType := range map[string]string{"": "object", "list": "array", "dict": "object"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?form="+form, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("form %q: status %d", form, rec.Code)
		}
		var doc map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("form %q: %v", form, err)
		}
		if doc["type"] != wantType {
			t.Fatalf("form %q: type %v", form, doc["type"])
		}
	}
}

func TestSchemaHandler_WholeScope(t *testing.T) {
	_, opt := greeter(t)
	rec := httptest.NewRecorder()
	middleware.SchemaHandler(nil, opt).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var doc struct {
		Defs  map[string]any `json:"$defs"`
		OneOf []any          `json:"oneOf"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("status %d: %v", rec.Code, err)
	}
	if _, ok := doc.Defs["Greeter"]; !ok || len(doc.OneOf) != 1 {
		t.Fatalf("scope schema: %s", rec.Body.String())
	}
}

func TestValidated_PassesSpecDownstream(t *testing.T) {
	ty, opt := greeter(t)
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := middleware.SpecFromContext(r.Context())
		if !ok {
			t.Fatalf("no spec in context")
		}
		seen = s.String("name")
		w.WriteHeader(http.StatusNoContent)
	})
	h := middleware.Validated(ty, opt)(next)

	if rec := post(h, "application/json", `{"name":"Ada"}`); rec.Code != http.StatusNoContent || seen != "Ada" {
		t.Fatalf("status %d seen %q", rec.Code, seen)
	}
	seen = ""
	if rec := post(h, "application/json", `{"name":""}`); rec.Code != http.StatusUnprocessableEntity || seen != "" {
		t.Fatalf("invalid body reached handler: %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = middleware.RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got == "" || rec.Header().Get(middleware.RequestIDHeader) != got {
		t.Fatalf("generated id %q header %q", got, rec.Header().Get(middleware.RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got != "abc" || rec.Header().Get(middleware.RequestIDHeader) != "abc" {
		t.Fatalf("propagated id %q", got)
	}
}

type opaque struct{}

func (opaque) MarshalJSON() ([]byte, error) { return nil, errors.New("opaque value") }

func TestConstructHandler_UnencodableResult(t *testing.T) {
	ty := g.Type("Opaque").
		BuildWith(func(context.Context, *artisan.Spec) (any, error) { return opaque{}, nil }).
		MustNew()
	opt := middleware.DefaultOptions()
	scope := artisan.NewScope(artisan.Layer{"Opaque": ty})
	opt.Scope = func(*http.Request) *artisan.Scope { return scope }

	rec := post(middleware.ConstructHandler(ty, opt), "application/json", `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Issues []artisan.Issue `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	if len(payload.Issues) != 1 || payload.Issues[0].Code != "encode_failed" {
		t.Fatalf("issues %+v", payload.Issues)
	}
}
