// Package webapi serves the restyler over HTTP: step and token helpers, the
// multipart restyle endpoint, and access to run artifacts. The same handler
// runs behind a local server and behind API Gateway in Lambda.
package webapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/metrics"
	"github.com/fpang/ui-restyler/internal/s3util"
)

const (
	runsPrefix            = "/api/runs/"
	defaultMaxUploadBytes = 20 << 20
)

// Defaults fill restyle form fields the client leaves blank.
type Defaults struct {
	Backend            backend.Variant
	Seed               int64
	StrengthMultiplier float64
	SeedJitter         bool
}

// Config wires a Server.
type Config struct {
	SaveDir          string
	SampleTokensPath string
	Defaults         Defaults
	BackendOptions   backend.Options
	MaxUploadBytes   int64
	Metrics          *metrics.Emitter
	// Artifacts, when set, receives every run directory after a successful run.
	Artifacts *s3util.Uploader
	// OriginVerifySecret, when set, is required in the x-origin-verify header.
	OriginVerifySecret string
	// AllowedOrigins are CORS origin prefixes. Empty allows localhost only.
	AllowedOrigins []string
	// NewEditor overrides backend construction.
	NewEditor func(backend.Variant) (backend.Editor, error)
}

// Server holds routes and the per-variant editor cache. Editors are reused
// so remote credentials are resolved once per process.
type Server struct {
	cfg Config
	mux *http.ServeMux

	mu      sync.Mutex
	editors map[backend.Variant]backend.Editor
}

// New builds a Server and registers its routes.
func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Defaults.Backend == "" {
		cfg.Defaults.Backend = backend.VariantFAL
	}
	if cfg.NewEditor == nil {
		opts := cfg.BackendOptions
		cfg.NewEditor = func(v backend.Variant) (backend.Editor, error) {
			return backend.New(v, opts)
		}
	}

	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		editors: make(map[backend.Variant]backend.Editor),
	}

	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/steps", s.handleSteps)
	s.mux.HandleFunc("/api/backends", s.handleBackends)
	s.mux.HandleFunc("/api/tokens/sample", s.handleSampleTokens)
	s.mux.HandleFunc("/api/tokens/form", s.handleTokensForm)
	s.mux.HandleFunc("/api/restyle", s.handleRestyle)
	s.mux.HandleFunc(runsPrefix, s.handleRunRoutes)

	return s
}

// Handler returns the routes wrapped with origin verification, CORS and
// request logging.
func (s *Server) Handler() http.Handler {
	return withLogging(s.withCORS(s.withOriginVerify(s.mux)))
}

func (s *Server) editor(v backend.Variant) (backend.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.editors[v]; ok {
		return e, nil
	}
	e, err := s.cfg.NewEditor(v)
	if err != nil {
		return nil, err
	}
	s.editors[v] = e
	return e, nil
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	allowed := s.cfg.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:", "http://127.0.0.1:"}
	}
	for _, prefix := range allowed {
		if prefix == "*" || strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// withOriginVerify rejects requests lacking the shared x-origin-verify
// header, so a CloudFront-fronted API cannot be called directly. Health
// checks are exempt.
func (s *Server) withOriginVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.OriginVerifySecret == "" || r.URL.Path == "/healthz" || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("x-origin-verify") != s.cfg.OriginVerifySecret {
			log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
			httpError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
