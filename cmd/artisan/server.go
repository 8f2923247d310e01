package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/middleware"
)

// server routes requests to the types of the holder's current scope.
type server struct {
	holder  *ScopeHolder
	opt     middleware.Options
	logger  zerolog.Logger
	metrics *middleware.Metrics
}

// newRouter mounts:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /schema[?form=list|dict]
//	GET  /targets
//	GET  /targets/{name}/schema[?form=list|dict]
//	POST /targets/{name}
func newRouter(holder *ScopeHolder, cfg *Config, logger zerolog.Logger, reg *prometheus.Registry) chi.Router {
	s := &server{holder: holder, logger: logger, metrics: middleware.NewMetrics(reg)}
	s.opt = middleware.DefaultOptions()
	s.opt.FailFast = cfg.FailFast
	s.opt.Metrics = s.metrics
	s.opt.Scope = func(*http.Request) *artisan.Scope { return s.holder.Get() }

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/schema", s.schemaAll)
	r.Route("/targets", func(r chi.Router) {
		r.Get("/", s.listTargets)
		r.Get("/{name}/schema", s.schema)
		r.Post("/{name}", s.construct)
	})
	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "scope": s.holder.Get().ID()})
}

type targetInfo struct {
	Key      string   `json:"key"`
	Abstract bool     `json:"abstract"`
	Subtypes []string `json:"subtypes,omitempty"`
}

func (s *server) listTargets(w http.ResponseWriter, _ *http.Request) {
	scope := s.holder.Get()
	out := []targetInfo{}
	for _, k := range scope.Keys() {
		t, _ := scope.Resolve(k)
		out = append(out, targetInfo{Key: k, Abstract: scope.IsAbstract(t), Subtypes: scope.Subtypes(t)})
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"targets": out})
}

func (s *server) target(w http.ResponseWriter, r *http.Request) (*artisan.Type, middleware.Options, bool) {
	scope := s.holder.Get()
	t, err := scope.Resolve(chi.URLParam(r, "name"))
	if err != nil {
		iss, _ := artisan.AsIssues(err)
		middleware.WriteJSON(w, http.StatusNotFound, middleware.ErrorPayload(iss))
		return nil, s.opt, false
	}
	// Pin the scope the target was resolved in for the rest of the request.
	opt := s.opt
	opt.Scope = func(*http.Request) *artisan.Scope { return scope }
	return t, opt, true
}

func (s *server) schema(w http.ResponseWriter, r *http.Request) {
	if t, opt, ok := s.target(w, r); ok {
		middleware.SchemaHandler(t, opt).ServeHTTP(w, r)
	}
}

func (s *server) schemaAll(w http.ResponseWriter, r *http.Request) {
	opt := s.opt
	scope := s.holder.Get()
	opt.Scope = func(*http.Request) *artisan.Scope { return scope }
	middleware.SchemaHandler(nil, opt).ServeHTTP(w, r)
}

func (s *server) construct(w http.ResponseWriter, r *http.Request) {
	if t, opt, ok := s.target(w, r); ok {
		middleware.ConstructHandler(t, opt).ServeHTTP(w, r)
	}
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if strings.HasPrefix(r.URL.Path, "/healthz") || r.URL.Path == "/metrics" {
			return
		}
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.RequestIDFrom(r.Context())).
			Msg("http request")
	})
}
