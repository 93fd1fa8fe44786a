// Package audit implements async event delivery for security-relevant token
// operations: issuance, rotation, reuse detection, revocation, blacklisting,
// and rate-limit hits.
//
// # Components
//
//   - [Event] — structured record with timestamp, type, subject, IP, outcome.
//   - [Sink] — consumer interface (channel, JSON writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full semantics.
//
// # What this package must NOT do
//
//   - Decide which events to emit — the Engine does.
//   - Import the root package or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
