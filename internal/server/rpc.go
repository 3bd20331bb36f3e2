package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/schemarpc/gateway/internal/types"
	"github.com/schemarpc/gateway/internal/wire"
)

// handleRPC serves the RPC root: POST is the call path, GET the health
// check, HEAD a bare 200; everything else is a 400.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCall(w, r)
	case http.MethodGet:
		s.handleHealth(w, r)
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	ok := s.dispatcher.Hooks().OnHealthCheck(r.Context())
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]bool{"ok": ok})
}

// handleCall drives one call through the full pipeline: buffer the body,
// classify and normalize, dispatch, encode the version-appropriate envelope.
// Every failure is converted into a response; the connection is never left
// unanswered.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in request pipeline", "panic", rec)
			s.writeFallback(w, "internal error")
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		slog.Error("request failed", "error", err)
		s.writeFallback(w, wire.ErrMalformed.Error())
		return
	}

	req, err := wire.Normalize(wire.Classify(body), body, clientIP(r), r.Header)
	if err != nil {
		slog.Error("request failed", "error", err)
		s.writeFallback(w, wire.ErrMalformed.Error())
		return
	}

	reply := s.dispatcher.Dispatch(r.Context(), req)

	elapsed := time.Since(start)
	status, envelope := wire.Envelope(req, reply, elapsed, s.hostname)
	if req.Version == types.Version3 {
		w.Header().Set(wire.RequestIDHeader, req.RequestID)
	}
	writeJSON(w, status, envelope)

	outcome := "OK"
	if reply.Error != nil {
		outcome = reply.Error.Type
	}
	slog.Info("call",
		"requestId", req.RequestID,
		"elapsed", fmt.Sprintf("%.6f", elapsed.Seconds()),
		"name", req.Name,
		"outcome", outcome,
	)
}

// writeFallback writes the fixed error envelope used when no canonical
// request exists.
func (s *Server) writeFallback(w http.ResponseWriter, message string) {
	status, envelope := wire.Fallback(message)
	writeJSON(w, status, envelope)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Transport-level failure: the response is abandoned, the
		// connection closed by the server; nothing to retry.
		slog.Debug("response write failed", "error", err)
	}
}

// clientIP extracts the caller address: first X-Forwarded-For hop, falling
// back to the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
