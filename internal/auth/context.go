// ABOUTME: Tenant context for tracking the authenticated caller through request handlers.
// ABOUTME: Provides WithTenant/FromContext for propagating the resolved tenant via context.

package auth

import (
	"context"

	"github.com/spincheck/spincheck/internal/store"
)

// tenantContextKey is the key type for storing the tenant in context.Context.
type tenantContextKey struct{}

// WithTenant returns a new context with the resolved tenant attached.
func WithTenant(ctx context.Context, tenant *store.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// FromContext retrieves the tenant from the context, returning nil if not present.
func FromContext(ctx context.Context) *store.Tenant {
	val := ctx.Value(tenantContextKey{})
	if val == nil {
		return nil
	}
	tenant, ok := val.(*store.Tenant)
	if !ok {
		return nil
	}
	return tenant
}

// MustFromContext retrieves the tenant from the context, panicking if not present.
// Handlers behind the gate use this; a missing tenant there is a wiring bug.
func MustFromContext(ctx context.Context) *store.Tenant {
	tenant := FromContext(ctx)
	if tenant == nil {
		panic("auth: tenant not found in context")
	}
	return tenant
}
