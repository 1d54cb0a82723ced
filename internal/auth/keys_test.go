// ABOUTME: Tests for opaque credential generation.
// ABOUTME: Validates prefixing, uniqueness, and URL safety.

package auth

import (
	"strings"
	"testing"
)

func TestNewOpaqueToken_Prefix(t *testing.T) {
	token, err := NewOpaqueToken("pk_")
	if err != nil {
		t.Fatalf("NewOpaqueToken() error = %v", err)
	}
	if !strings.HasPrefix(token, "pk_") {
		t.Errorf("expected 'pk_' prefix, got %q", token)
	}
	if len(token) <= len("pk_") {
		t.Errorf("token has no entropy: %q", token)
	}
}

func TestNewOpaqueToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		token, err := NewOpaqueToken("ch_")
		if err != nil {
			t.Fatalf("NewOpaqueToken() error = %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %q", token)
		}
		seen[token] = true
	}
}

func TestNewOpaqueToken_URLSafe(t *testing.T) {
	for range 100 {
		token, _ := NewOpaqueToken("pt_")
		if strings.ContainsAny(token, "+/=") {
			t.Errorf("token contains non-URL-safe characters: %q", token)
		}
	}
}
