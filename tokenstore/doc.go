// Package tokenstore persists refresh tokens: one row per issued token,
// mutated only to set the revocation flag, swept once expired.
//
// # Components
//
//   - [RefreshToken] — the persisted row. State is derived: active means not
//     revoked and not expired; revocation is final.
//   - [Store] — the narrow repository interface the Engine consumes.
//   - [PostgresStore] — production implementation over database/sql with the
//     pgx driver; schema lives in tokenstore/migrations (goose).
//   - [MemoryStore] — mutex-guarded map implementation for tests and
//     single-node deployments.
//
// # What this package must NOT do
//
//   - Generate token values or decide revocation policy (Engine's job).
//   - Manage connection pooling or commit/rollback beyond single statements.
package tokenstore
