// Package jwt resolves signing algorithms against key material and computes token
// signatures on top of github.com/golang-jwt/jwt/v5.
//
// # Key classification
//
// [InferKey] inspects raw bytes, PEM blocks, or parsed private keys and reports a closed
// [Family]. [CheckCompatible] consults an explicit expected-family × actual-family table;
// it never compares algorithm name prefixes.
//
// # What this package must NOT do
//
//   - Build headers, compose claims, or encode segments (the root package owns that).
//   - Verify signatures.
//   - Import goToken (no upward imports).
package jwt
