// Package debugsrv serves the engine's debug and metrics surface: a
// health check, Prometheus text exposition, and the current
// active-phrase grammar for integrator tooling. It is off by default;
// the default address is loopback, and a configured address is bound
// as given without a loopback check.
package debugsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/voxmap/voxmap/internal/metrics"
	"github.com/voxmap/voxmap/internal/store"
	"github.com/voxmap/voxmap/internal/tracing"
)

// GrammarSource exposes the currently active phrase set. The
// Coordinator's grammar satisfies this.
type GrammarSource interface {
	Active() []string
}

// OverflowSource reports how many speech results have been dropped for
// channel overflow.
type OverflowSource interface {
	SpeechOverflowed() int64
}

// Server is the debug HTTP server.
type Server struct {
	router   chi.Router
	addr     string
	server   *http.Server
	store    *store.Store
	grammar  GrammarSource
	overflow OverflowSource
}

// New creates a Server wired to the given collector, store, and grammar.
func New(collector *metrics.Collector, st *store.Store, grammar GrammarSource, overflow OverflowSource, addr string) *Server {
	s := &Server{
		addr:     addr,
		store:    st,
		grammar:  grammar,
		overflow: overflow,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracing.HTTPMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", metrics.PrometheusHandler(collector))
	r.Get("/debug/grammar", s.handleGrammar)
	r.Get("/debug/apps/{package}", s.handleApp)

	s.router = r
	return s
}

// Handler returns the underlying router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the configured address. It blocks until the
// server is shut down or an error occurs.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("debug server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("debugsrv: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(); err != nil {
		status = "store unreachable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func (s *Server) handleGrammar(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		Active           []string `json:"active_phrases"`
		SpeechOverflowed int64    `json:"speech_results_dropped"`
	}{
		Active: s.grammar.Active(),
	}
	if s.overflow != nil {
		resp.SpeechOverflowed = s.overflow.SpeechOverflowed()
	}
	if resp.Active == nil {
		resp.Active = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "package")
	app, err := s.store.GetApp(packageName)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown package"})
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("debugsrv: encoding response")
	}
}
