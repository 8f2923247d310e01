package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	artisan "github.com/MasonMcGill/artisan"
)

const jobTypes = `
types:
  - name: Job
    doc: A unit of work.
    fields:
      - name: retries
        type: int
        default: 0
        constraints: {minimum: 0}
  - name: Shell
    extends: Job
    fields:
      - name: command
        type: string
  - name: Sleep
    extends: Job
    fields:
      - name: seconds
        type: float
        default: 1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "artisan.yaml", "types: jobs.yaml\nfail_fast: true\nlog: {level: debug, format: console}\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" || !cfg.FailFast || cfg.Log.Level != "debug" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.Types != filepath.Join(dir, "jobs.yaml") {
		t.Fatalf("types path not resolved against the config file: %s", cfg.Types)
	}

	t.Setenv(EnvListen, "127.0.0.1:9999")
	cfg, err = LoadConfig(path)
	if err != nil || cfg.Listen != "127.0.0.1:9999" {
		t.Fatalf("env override: %v %+v", err, cfg)
	}
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": "listne: :80\n",
		"bad level":   "log: {level: loud}\n",
		"bad format":  "log: {format: xml}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, t.TempDir(), "artisan.yaml", src)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestScopeCommand(t *testing.T) {
	types := writeFile(t, t.TempDir(), "jobs.yaml", jobTypes)
	out, err := run(t, "scope", "--types", types)
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	for _, want := range []string{"Job", "abstract", "Shell,Sleep", "Sleep"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSchemaCommand(t *testing.T) {
	types := writeFile(t, t.TempDir(), "jobs.yaml", jobTypes)
	out, err := run(t, "schema", "--types", types, "--target", "Job", "--list")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc["type"] != "array" {
		t.Fatalf("list schema: %v", doc)
	}
	if _, err := run(t, "schema", "--types", types, "--target", "Nope"); !errors.Is(err, artisan.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
	if _, err := run(t, "schema", "--types", types, "--target", "Job", "--list", "--dict"); err == nil {
		t.Fatalf("expected flag conflict")
	}
}

func TestSchemaCommand_WholeScope(t *testing.T) {
	types := writeFile(t, t.TempDir(), "jobs.yaml", jobTypes)
	out, err := run(t, "schema", "--types", types, "--dict")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var doc struct {
		Type                 string                    `json:"type"`
		Defs                 map[string]any            `json:"$defs"`
		Properties           map[string]map[string]any `json:"properties"`
		AdditionalProperties struct {
			OneOf []any `json:"oneOf"`
		} `json:"additionalProperties"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc.Type != "object" || doc.Properties["$schema"]["type"] != "string" {
		t.Fatalf("dict scope schema:\n%s", out)
	}
	for _, k := range []string{"Job", "Shell", "Sleep"} {
		if _, ok := doc.Defs[k]; !ok {
			t.Fatalf("missing $defs/%s", k)
		}
	}
	if len(doc.AdditionalProperties.OneOf) != 2 {
		t.Fatalf("expected Shell and Sleep branches, got %d", len(doc.AdditionalProperties.OneOf))
	}
}

func TestConstructCommand(t *testing.T) {
	dir := t.TempDir()
	types := writeFile(t, dir, "jobs.yaml", jobTypes)
	good := writeFile(t, dir, "good.yaml", "type: Shell\ncommand: echo hi\n")
	bad := writeFile(t, dir, "bad.json", `{"type": "Shell", "retries": -1}`)

	out, err := run(t, "construct", "--types", types, "--target", "Job", "--spec", good)
	if err != nil {
		t.Fatalf("construct: %v\n%s", err, out)
	}
	var spec map[string]any
	if err := json.Unmarshal([]byte(out), &spec); err != nil {
		t.Fatalf("output: %v\n%s", err, out)
	}
	if spec["command"] != "echo hi" || spec["retries"] != float64(0) || spec["type"] != "Shell" {
		t.Fatalf("spec: %v", spec)
	}

	out, err = run(t, "construct", "--types", types, "--target", "Job", "--spec", bad)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	for _, want := range []string{`"/command"`, `"/retries"`, artisan.CodeTooSmall} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}

	out, _ = run(t, "construct", "--types", types, "--target", "Job", "--spec", bad, "--fail-fast")
	if strings.Count(out, `"code"`) != 1 {
		t.Fatalf("fail-fast reported more than one issue:\n%s", out)
	}
}

func newTestServer(t *testing.T, types string) (*ScopeHolder, http.Handler) {
	t.Helper()
	holder, err := NewScopeHolder(types, zerolog.Nop())
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	t.Cleanup(holder.Stop)
	return holder, newRouter(holder, &Config{}, zerolog.Nop(), prometheus.NewRegistry())
}

func TestRouter(t *testing.T) {
	types := writeFile(t, t.TempDir(), "jobs.yaml", jobTypes)
	_, h := newTestServer(t, types)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := do(http.MethodGet, "/targets/", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Shell"`) {
		t.Fatalf("targets: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodGet, "/targets/Job/schema", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "oneOf") {
		t.Fatalf("schema: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodGet, "/schema?form=list", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"#/$defs/Sleep"`) {
		t.Fatalf("scope schema: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPost, "/targets/Job", `{"type":"Sleep","seconds":2}`); rec.Code != http.StatusCreated {
		t.Fatalf("construct: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPost, "/targets/Job", `{"seconds":2}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing tag: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPost, "/targets/Nope", `{}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown target: %d", rec.Code)
	}
	rec := do(http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `artisan_constructions_total{outcome="ok",type="Job"} 1`) {
		t.Fatalf("metrics:\n%s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id not set")
	}
}

func TestScopeHolder_ReloadSwapsScope(t *testing.T) {
	dir := t.TempDir()
	types := writeFile(t, dir, "jobs.yaml", jobTypes)
	holder, h := newTestServer(t, types)
	before := holder.Get()

	var calls atomic.Int32
	holder.OnChange(func(*artisan.Scope) { calls.Add(1) })

	writeFile(t, dir, "jobs.yaml", jobTypes+"  - name: Noop\n    extends: Job\n")
	if err := holder.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if holder.Get() == before || calls.Load() != 1 {
		t.Fatalf("scope not swapped")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/targets/Job", strings.NewReader(`{"type":"Noop"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("new type not served: %d %s", rec.Code, rec.Body.String())
	}

	current := holder.Get()
	writeFile(t, dir, "jobs.yaml", "types: [")
	if err := holder.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if holder.Get() != current {
		t.Fatalf("failed reload replaced the scope")
	}
}

func TestScopeHolder_WatchFile(t *testing.T) {
	dir := t.TempDir()
	types := writeFile(t, dir, "jobs.yaml", jobTypes)
	holder, err := NewScopeHolder(types, zerolog.Nop())
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	defer holder.Stop()
	if err := holder.WatchFile(); err != nil {
		t.Fatalf("watch: %v", err)
	}

	writeFile(t, dir, "jobs.yaml", jobTypes+"  - name: Noop\n    extends: Job\n")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := holder.Get().Resolve("Noop"); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("file watcher did not reload the scope")
}
