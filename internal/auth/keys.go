// ABOUTME: Opaque credential generation for API keys, secret keys, and tokens.
// ABOUTME: All values are cryptographically random and URL-safe.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the entropy of every generated credential (192 bits).
const tokenBytes = 24

// NewOpaqueToken returns a fresh URL-safe random token with the given prefix.
// Prefixes keep key classes visually distinct ("pk_", "sk_", "ch_", "pt_")
// but carry no semantics; the value itself is the whole credential.
func NewOpaqueToken(prefix string) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}
