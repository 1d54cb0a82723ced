// Package auth provides the browser-facing authentication gate for spincheck.
//
// # Auth Gate
//
// Gated endpoints (/create and /verify) pass through Gate.Middleware, which
// enforces four checks in order, short-circuiting on the first failure:
//
//  1. An X-API-Key header is present (MissingApiKey)
//  2. The key resolves to a tenant (InvalidApiKey)
//  3. The request Origin is allow-listed for that tenant (OriginNotAllowed)
//  4. Free-plan tenants are under quota (QuotaExceeded)
//
// On success the resolved tenant is attached to the request context and can
// be retrieved with FromContext / MustFromContext. The gate never consumes
// quota itself; the usage increment belongs to challenge creation.
//
// The server-to-server /siteverify endpoint does not pass through the gate.
// It authenticates with the tenant's secret key, a separate namespace that
// is never matched against API keys.
//
// # Credentials
//
// All keys and tokens are opaque random values from NewOpaqueToken. Nothing
// is derivable from them; possession is the only proof.
package auth
