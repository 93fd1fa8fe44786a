// Package flows contains pure-function orchestrators for the token lifecycle
// operations.
//
// Each flow function (RunIssue, RunRotate) accepts a typed dependency struct
// and returns a result classified by a failure kind. The root package maps
// kinds to its public sentinel errors; flows never decide caller-visible
// error identity themselves.
//
// # Architecture boundaries
//
// Flow functions coordinate the refresh-token store, the token codec, and the
// subject provider through injected funcs. They do NOT own any of these
// resources.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through the dependency
//     structs.
package flows
