// ABOUTME: Transport-level HTTP middleware: CORS, request logging, panic recovery.
// ABOUTME: CORS reflects only allow-listed origins; per-tenant origin checks stay in the auth gate.

package api

import (
	"net/http"
	"time"
)

// corsHeaders sets CORS response headers and answers preflight requests.
// The request origin is reflected only when some tenant allow-lists it;
// unknown origins get no Access-Control-Allow-Origin header at all. The auth
// gate still enforces the per-tenant origin check on gated endpoints.
func (s *Server) corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Vary", "Origin")
			allowed, err := s.store.OriginAllowlisted(r.Context(), origin)
			if err != nil {
				s.logger.Error("origin allowlist lookup failed", "error", err)
			}
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusWriter captures the response status for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request with method, path, status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

// recoverPanics converts handler panics into 500 responses instead of
// tearing down the connection.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "InternalStoreError", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
