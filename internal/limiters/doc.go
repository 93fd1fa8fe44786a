// Package limiters binds the generic sliding-window limiter to named
// policies, each with its own key shape, budget, and window.
//
// # Policies
//
//   - failed-login:{username}:{ip} — failure-only: Peek decides, only a
//     failed credential check records an attempt, success resets the key.
//   - password-change:{subject} — consumed up front per change attempt.
//   - username-change:{subject} — consumed up front per change attempt.
//   - refresh:{ip} — consumed up front per rotation attempt.
//
// # What this package must NOT do
//
//   - Talk to Redis directly (it composes internal/rate).
//   - Decide what happens when a budget is exhausted.
package limiters
