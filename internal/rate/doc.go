// Package rate implements the generic sliding-window limiter over a Redis
// sorted set: members are per-attempt markers scored by timestamp, evicted
// once they fall out of the trailing window.
//
// # Window semantics
//
// CheckAndConsume is check-then-increment: evict, count, and only add a
// member when the budget still has room. Rejected attempts are not counted
// a second time. The sequence is not atomic across concurrent callers on the
// same key — two callers can both observe room and both be admitted. This
// allow bias is deliberate: the limiter is an abuse deterrent, not a hard
// security boundary.
//
// # What this package must NOT do
//
//   - Define policy key shapes or budgets (those live in internal/limiters).
//   - Be imported outside this module.
package rate
