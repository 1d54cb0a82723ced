// ABOUTME: Tests for tenant context propagation.
// ABOUTME: Covers WithTenant/FromContext round trips and MustFromContext panics.

package auth

import (
	"context"
	"testing"

	"github.com/spincheck/spincheck/internal/store"
)

func TestWithTenant_RoundTrip(t *testing.T) {
	tenant := &store.Tenant{ID: "tenant-1", APIKey: "pk_x"}
	ctx := WithTenant(context.Background(), tenant)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("expected tenant in context")
	}
	if got.ID != "tenant-1" {
		t.Errorf("expected tenant 'tenant-1', got %q", got.ID)
	}
}

func TestFromContext_Empty(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("expected nil tenant, got %+v", got)
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing tenant")
		}
	}()
	MustFromContext(context.Background())
}

func TestMustFromContext_Present(t *testing.T) {
	ctx := WithTenant(context.Background(), &store.Tenant{ID: "tenant-2"})
	if got := MustFromContext(ctx); got.ID != "tenant-2" {
		t.Errorf("expected tenant 'tenant-2', got %q", got.ID)
	}
}
