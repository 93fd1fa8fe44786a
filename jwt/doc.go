// Package jwt implements the signed-token codec: minting and verifying
// compact HMAC-signed access tokens, and generating opaque refresh values.
//
// # Architecture boundaries
//
// The codec is stateless. Secret, algorithm, and TTLs arrive through
// [Config] at construction; nothing here touches Redis or the refresh-token
// store. Refresh values carry no claims — their only security property is
// unguessability plus server-side lookup.
//
// # What this package must NOT do
//
//   - Persist or look up tokens (that is the Engine's job).
//   - Accept algorithms other than the one configured.
//   - Import any sibling package of the module.
package jwt
