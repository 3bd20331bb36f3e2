package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/schemarpc/gateway/internal/schema"
)

// handleTarget emits generated source text for one target platform.
func (s *Server) handleTarget(w http.ResponseWriter, gen schema.Generator) {
	out, err := gen(s.dispatcher.Schema().Description())
	if err != nil {
		slog.Error("stub generation failed", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}

// handleAST serves the compiled interface description verbatim.
func (s *Server) handleAST(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.dispatcher.Schema().Description())
}

// handlePlayground serves the developer UI bundle, stripping the mount
// prefix so the bundle sees root-relative paths.
func (s *Server) handlePlayground(w http.ResponseWriter, r *http.Request) {
	if s.playground == nil {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, PlaygroundPrefix)
	if path == "" {
		path = "/"
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	http.FileServer(http.FS(s.playground)).ServeHTTP(w, r2)
}
