// Package challenge implements the core of the spatial CAPTCHA protocol.
//
// # Lifecycle
//
// Create issues a one-shot challenge: an opaque session id bound to a secret
// target orientation, held in an expiring store for five minutes. Verify
// consumes the session atomically on lookup, before judging the submitted
// orientation, so every session admits exactly one attempt. A solve within
// tolerance mints a pass token, a second one-shot credential the tenant's
// backend redeems through the siteverify package within three minutes.
//
// # Accounting
//
// Create counts usage against the tenant after the session is stored. An
// increment failure surfaces as an error and leaves the session to expire
// unused; the caller never sees a session id that was not paid for.
package challenge
