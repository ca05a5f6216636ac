// Package codec holds the segment encoding shared by the signer and the decoder:
// base64url without padding for the wire, encoding/json for header and claims.
//
// # What this package must NOT do
//
//   - Interpret claims or header fields.
//   - Be imported outside the goToken module.
package codec
