// Package authcore provides the authentication token lifecycle core for the
// tariff-comparison backend: JWT access tokens, single-use rotating opaque
// refresh tokens with reuse detection, a Redis-backed access-token denylist,
// and sliding-window rate limiting with named policies.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, Decision, MetricsSnapshot). All internal
// coordination, flow orchestration, rate limiting, denylist storage, and
// audit dispatch live under internal/ and are never exported. The signed
// token codec and the refresh-token repository are public sub-packages
// (jwt, tokenstore) because callers inject and implement them.
//
// # What this package must NOT do
//
//   - Authenticate credentials. Password verification belongs to the caller;
//     the engine only manages tokens and budgets.
//   - Serve HTTP or serialize transport payloads.
//   - Own the Redis client or the database handle. Both are injected and the
//     caller controls their lifecycle and transaction boundaries.
package authcore
