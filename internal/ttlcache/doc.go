// Package ttlcache provides an in-memory expiring key-value store.
//
// Two independently configured instances back the challenge protocol: one
// holds challenge sessions (5 minute TTL), the other holds pass tokens
// (3 minute TTL). They share no state.
//
// The one-shot consumption guarantees of the protocol rest on GetAndDelete:
// when multiple requests race on the same key, exactly one observes the
// value and every other caller sees a miss.
package ttlcache
