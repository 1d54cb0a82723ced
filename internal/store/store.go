// ABOUTME: Store interface and data types for spincheck persistence.
// ABOUTME: Defines Tenant, ContentItem and the Store interface the services depend on.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when a tenant key collides with an existing one
var ErrDuplicateKey = errors.New("key already exists")

// Plan constants for tenant billing plans
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// Tenant represents a registered customer of the service. The browser-facing
// APIKey and the backend-facing SecretKey are distinct namespaces and are
// never cross-validated.
type Tenant struct {
	ID             string
	Name           string
	APIKey         string
	SecretKey      string
	AllowedOrigins []string
	Plan           string
	UsageCount     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OriginAllowed reports whether origin may present this tenant's API key.
func (t *Tenant) OriginAllowed(origin string) bool {
	for _, o := range t.AllowedOrigins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}

// ContentItem is one entry of the 3D-model catalog. ContentRef is opaque to
// the protocol; clients resolve it to renderable content themselves.
type ContentItem struct {
	ID         string
	ContentRef string
	CreatedAt  time.Time
}

// TenantDirectory defines the lookups and the usage write the auth gate and
// the challenge service need.
type TenantDirectory interface {
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*Tenant, error)
	GetTenantBySecretKey(ctx context.Context, secretKey string) (*Tenant, error)
	IncrementUsage(ctx context.Context, apiKey string) error
}

// Catalog defines content selection for challenge creation.
type Catalog interface {
	RandomContentRef(ctx context.Context) (string, error)
}

// Store defines the full persistence interface.
type Store interface {
	TenantDirectory
	Catalog

	CreateTenant(ctx context.Context, tenant *Tenant) error
	AddContent(ctx context.Context, item *ContentItem) error
	OriginAllowlisted(ctx context.Context, origin string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
