// Package keystore provides deferred key sources for goToken signers.
//
// [Store] keeps signing keys in Redis under their key ID and exposes them as a
// [goToken.KeyFunc] that looks up the kid of the header being signed. [NewCachedKeyFunc]
// puts an in-process TTL cache in front of any KeyFunc.
//
// # Architecture boundaries
//
// This package owns key persistence and lookup. It does NOT parse or classify key
// material; the Signer does that after every fetch.
//
// # What this package must NOT do
//
//   - Log key material.
//   - Generate or rotate keys on its own.
package keystore
