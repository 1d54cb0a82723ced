// ABOUTME: HTTP API for the spincheck challenge protocol.
// ABOUTME: Exposes /api/v1 create, verify, and siteverify plus a health endpoint.

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spincheck/spincheck/internal/auth"
	"github.com/spincheck/spincheck/internal/challenge"
	"github.com/spincheck/spincheck/internal/siteverify"
	"github.com/spincheck/spincheck/internal/spatial"
	"github.com/spincheck/spincheck/internal/store"
)

// CreateResponse is the JSON response for POST /api/v1/create.
type CreateResponse struct {
	SessionID         string              `json:"session_id"`
	ContentRef        string              `json:"content_ref"`
	TargetOrientation spatial.Orientation `json:"target_orientation"`
}

// VerifyRequest is the JSON request body for POST /api/v1/verify.
type VerifyRequest struct {
	SessionID            string              `json:"session_id"`
	SubmittedOrientation spatial.Orientation `json:"submitted_orientation"`
}

// VerifyResponse is the JSON response for POST /api/v1/verify.
type VerifyResponse struct {
	Verified   bool    `json:"verified"`
	ErrorAngle float64 `json:"error_angle"`
	Tolerance  float64 `json:"tolerance"`
	PassToken  string  `json:"pass_token,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// SiteVerifyRequest is the JSON request body for POST /api/v1/siteverify.
type SiteVerifyRequest struct {
	SecretKey string `json:"secret_key"`
	PassToken string `json:"pass_token"`
}

// SiteVerifyResponse is the JSON response for POST /api/v1/siteverify.
type SiteVerifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	ErrorAngle  *float64 `json:"error_angle,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// errorResponse is the generic JSON error body.
type errorResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Server wires the challenge protocol services into HTTP handlers.
type Server struct {
	challenges *challenge.Service
	siteVerify *siteverify.Service
	gate       *auth.Gate
	store      store.Store
	ratePerMin int
	logger     *slog.Logger
}

// NewServer creates the HTTP API server.
func NewServer(challenges *challenge.Service, sv *siteverify.Service, gate *auth.Gate, st store.Store, ratePerMin int) *Server {
	return &Server{
		challenges: challenges,
		siteVerify: sv,
		gate:       gate,
		store:      st,
		ratePerMin: ratePerMin,
		logger:     slog.Default().With("component", "api"),
	}
}

// Routes builds the full handler chain. The auth gate and rate limiter guard
// only the browser-facing endpoints; siteverify authenticates by secret key
// in its own handler.
func (s *Server) Routes() http.Handler {
	limiter := newTenantLimiter(s.ratePerMin)
	gated := func(h http.HandlerFunc) http.Handler {
		return s.gate.Middleware(limiter.middleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/create", gated(s.handleCreate))
	mux.Handle("POST /api/v1/verify", gated(s.handleVerify))
	mux.HandleFunc("POST /api/v1/siteverify", s.handleSiteVerify)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.recoverPanics(s.logRequests(s.corsHeaders(mux)))
}

// handleCreate handles POST /api/v1/create requests.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	tenant := auth.MustFromContext(r.Context())

	result, err := s.challenges.Create(r.Context(), tenant)
	if errors.Is(err, challenge.ErrNoContent) {
		writeError(w, http.StatusServiceUnavailable, "NoContentAvailable", "no challenge content available")
		return
	}
	if err != nil {
		s.logger.Error("challenge creation failed", "tenant", tenant.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalStoreError", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, CreateResponse{
		SessionID:         result.SessionID,
		ContentRef:        result.ContentRef,
		TargetOrientation: result.Target,
	})
}

// handleVerify handles POST /api/v1/verify requests.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MalformedRequest", "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "MalformedRequest", "session_id required")
		return
	}

	result, err := s.challenges.Verify(req.SessionID, req.SubmittedOrientation)
	if err != nil {
		s.logger.Error("verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalStoreError", "internal error")
		return
	}

	resp := VerifyResponse{
		Verified:   result.Verified,
		ErrorAngle: result.ErrorAngle,
		Tolerance:  result.Tolerance,
		PassToken:  result.PassToken,
		Reason:     result.Reason,
	}
	if result.Reason == challenge.ReasonInvalidSession {
		resp.Message = "session is unknown, expired, or already used"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSiteVerify handles POST /api/v1/siteverify requests.
func (s *Server) handleSiteVerify(w http.ResponseWriter, r *http.Request) {
	var req SiteVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, siteverify.ReasonMissingParameters, "invalid JSON body")
		return
	}

	result, err := s.siteVerify.Redeem(r.Context(), req.SecretKey, req.PassToken)
	switch {
	case errors.Is(err, siteverify.ErrMissingParameters):
		writeError(w, http.StatusBadRequest, siteverify.ReasonMissingParameters, "secret_key and pass_token are required")
		return
	case errors.Is(err, siteverify.ErrInvalidSecretKey):
		writeError(w, http.StatusUnauthorized, siteverify.ReasonInvalidSecretKey, "unknown secret key")
		return
	case err != nil:
		s.logger.Error("siteverify failed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalStoreError", "internal error")
		return
	}

	resp := SiteVerifyResponse{Success: result.Success}
	if result.Success {
		resp.ChallengeTS = result.ChallengeTS.Format(time.RFC3339)
		resp.ErrorAngle = &result.ErrorAngle
	} else {
		resp.Reason = result.Reason
		resp.Message = "pass token is unknown, expired, or already redeemed"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealthz handles GET /healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "StoreUnavailable", "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Reason:  reason,
		Message: message,
	})
}
