// Package server is the request pipeline orchestrator: it terminates inbound
// connections, applies the CORS/header policy, routes non-RPC paths through
// the route table, and drives the normalize → dispatch → encode pipeline for
// RPC calls with per-call timing and logging.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/schemarpc/gateway/internal/config"
	"github.com/schemarpc/gateway/internal/dispatch"
	"github.com/schemarpc/gateway/internal/routes"
	"github.com/schemarpc/gateway/internal/schema"
)

// Target stub paths served by the codegen routes.
const (
	TargetNodeAPI       = "/targets/node/api.ts"
	TargetNodeClient    = "/targets/node/client.ts"
	TargetWebClient     = "/targets/web/client.ts"
	TargetFlutterClient = "/targets/flutter/client.dart"
)

// PlaygroundPrefix mounts the developer UI bundle.
const PlaygroundPrefix = "/playground"

var playgroundPattern = regexp.MustCompile(`^/playground`)

// Server is the gateway HTTP server.
type Server struct {
	cfg        *config.ServerConfig
	dispatcher *dispatch.Dispatcher
	routes     *routes.Table
	cors       *HeaderPolicy
	headers    *HeaderPolicy
	playground fs.FS
	hostname   string
	httpServer *http.Server
}

// New creates a server with the introspection and codegen routes registered.
// Generators and the playground bundle are attached before Start; the route
// table is append-only until serving begins.
func New(cfg *config.ServerConfig, d *dispatch.Dispatcher) *Server {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		routes:     &routes.Table{},
		cors:       NewHeaderPolicy(),
		headers:    NewHeaderPolicy(),
		hostname:   host,
	}

	s.cors.Add("Access-Control-Allow-Methods", "DELETE, HEAD, PUT, POST, GET, OPTIONS")
	s.cors.Add("Access-Control-Allow-Headers", "Content-Type")
	s.cors.Add("Access-Control-Max-Age", "86400")
	if !cfg.DynamicCORS {
		s.cors.Add("Access-Control-Allow-Origin", "*")
	}

	s.routes.Handle(http.MethodGet, "/ast.json", gzhttp.GzipHandler(http.HandlerFunc(s.handleAST)))
	s.routes.HandlePattern(http.MethodGet, playgroundPattern, gzhttp.GzipHandler(http.HandlerFunc(s.handlePlayground)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// RegisterGenerator binds a target stub path (one of the Target constants) to
// a generator. The route serves the generated text, or status 500 with the
// error text when generation fails.
func (s *Server) RegisterGenerator(target string, gen schema.Generator) {
	s.routes.Handle(http.MethodGet, target, gzhttp.GzipHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleTarget(w, gen)
	})))
}

// SetPlayground attaches the developer UI bundle served under the playground
// prefix.
func (s *Server) SetPlayground(fsys fs.FS) {
	s.playground = fsys
}

// AddHeader extends the header policy merged into every non-preflight
// response.
func (s *Server) AddHeader(name, value string) {
	s.headers.Add(name, value)
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	slog.Info("listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, draining in-flight calls.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP applies CORS before any body is read, short-circuits preflight,
// and resolves the route table with the RPC pipeline as fallback.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p := s.cfg.URLPrefix; p != "" {
		r.URL.Path = strings.TrimPrefix(r.URL.Path, p)
		if r.URL.Path == "" {
			r.URL.Path = "/"
		}
	}
	if s.cfg.Verbose {
		slog.Info("request", "method", r.Method, "path", r.URL.Path)
	}

	s.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		// Preflight gets only the CORS headers, not the general policy.
		w.WriteHeader(http.StatusOK)
		return
	}
	s.headers.Apply(w.Header())

	if h := s.routes.Resolve(r.Method, r.URL.Path); h != nil {
		h(w, r)
		return
	}
	s.handleRPC(w, r)
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	s.cors.Apply(w.Header())
	if s.cfg.DynamicCORS {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
	}
}
