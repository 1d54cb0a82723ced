// ABOUTME: Per-tenant token-bucket rate limiting for gated endpoints.
// ABOUTME: Limiters are created lazily per tenant id with a shared per-minute budget.

package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/spincheck/spincheck/internal/auth"
)

// tenantLimiter holds one token bucket per tenant id.
type tenantLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	perMin   int
}

func newTenantLimiter(perMin int) *tenantLimiter {
	return &tenantLimiter{
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMin,
	}
}

func (tl *tenantLimiter) getLimiter(tenantID string) *rate.Limiter {
	tl.mu.RLock()
	limiter, exists := tl.limiters[tenantID]
	tl.mu.RUnlock()

	if !exists {
		tl.mu.Lock()
		// Double-check after acquiring write lock
		limiter, exists = tl.limiters[tenantID]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(tl.perMin)/60, tl.perMin)
			tl.limiters[tenantID] = limiter
		}
		tl.mu.Unlock()
	}

	return limiter
}

// middleware enforces the per-tenant rate limit. It must run after the auth
// gate, which attaches the tenant to the context.
func (tl *tenantLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := auth.FromContext(r.Context())
		if tenant == nil {
			// No tenant means the gate was bypassed; let the handler's own
			// MustFromContext surface the wiring bug.
			next.ServeHTTP(w, r)
			return
		}

		if !tl.getLimiter(tenant.ID).Allow() {
			writeError(w, http.StatusTooManyRequests, "RateLimitExceeded", "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
