// Package stores holds the Redis-backed key-value stores used by the token
// lifecycle, currently the access-token denylist.
//
// # What this package must NOT do
//
//   - Decode or validate tokens (keys are opaque strings here).
//   - Compute TTLs (the Engine derives them from token claims).
package stores
