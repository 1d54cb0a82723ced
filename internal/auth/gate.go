// ABOUTME: HTTP middleware enforcing API-key validity, origin allow-listing, and quota.
// ABOUTME: Attaches the resolved tenant to the request context for downstream handlers.

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spincheck/spincheck/internal/store"
)

// Rejection reasons surfaced in gate error responses.
const (
	ReasonMissingAPIKey    = "MissingApiKey"
	ReasonInvalidAPIKey    = "InvalidApiKey"
	ReasonOriginNotAllowed = "OriginNotAllowed"
	ReasonQuotaExceeded    = "QuotaExceeded"
	ReasonInternalError    = "InternalStoreError"
)

// APIKeyHeader carries the browser-facing key on gated endpoints.
const APIKeyHeader = "X-API-Key"

// gateError is the JSON body written for gate rejections.
type gateError struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Gate enforces the browser-facing authentication checks in order: key
// present, key known, origin allow-listed, quota not exhausted. It only
// checks quota; consuming it happens later, in challenge creation.
type Gate struct {
	tenants   store.TenantDirectory
	freeQuota int64
	logger    *slog.Logger
}

// NewGate creates a gate backed by the given tenant directory. freeQuota is
// the challenge budget for free-plan tenants.
func NewGate(tenants store.TenantDirectory, freeQuota int64) *Gate {
	return &Gate{
		tenants:   tenants,
		freeQuota: freeQuota,
		logger:    slog.Default().With("component", "auth"),
	}
}

// Middleware wraps next with the gate checks. On success the resolved tenant
// is attached to the request context; on failure the request is rejected with
// a structured JSON body and never reaches next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(APIKeyHeader)
		if apiKey == "" {
			writeReason(w, http.StatusUnauthorized, ReasonMissingAPIKey, "API key required")
			return
		}

		tenant, err := g.tenants.GetTenantByAPIKey(r.Context(), apiKey)
		if errors.Is(err, store.ErrNotFound) {
			writeReason(w, http.StatusUnauthorized, ReasonInvalidAPIKey, "unknown API key")
			return
		}
		if err != nil {
			g.logger.Error("tenant lookup failed", "error", err)
			writeReason(w, http.StatusInternalServerError, ReasonInternalError, "internal error")
			return
		}

		origin := r.Header.Get("Origin")
		if !tenant.OriginAllowed(origin) {
			g.logger.Warn("origin rejected", "tenant", tenant.ID, "origin", origin)
			writeReason(w, http.StatusUnauthorized, ReasonOriginNotAllowed, "origin not allowed for this API key")
			return
		}

		if tenant.Plan == store.PlanFree && tenant.UsageCount >= g.freeQuota {
			writeReason(w, http.StatusTooManyRequests, ReasonQuotaExceeded, "free tier quota exhausted")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
	})
}

// writeReason writes a structured gate rejection.
func writeReason(w http.ResponseWriter, status int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(gateError{
		Success: false,
		Reason:  reason,
		Message: message,
	})
}
