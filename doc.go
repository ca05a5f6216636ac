// Package goToken issues compact signed tokens (header.payload.signature, base64url
// encoded JSON segments, as in JSON Web Tokens) and parses their structure without
// verifying signatures.
//
// A [Signer] is configured once through [SignerConfig] and then invoked per payload. Its
// key is either literal material, classified at construction, or a resolver ([KeyFunc],
// [KeyCallbackFunc]) consulted once per call. Both shapes produce identical tokens; only
// the moment the key becomes available differs. Results are available synchronously
// ([Signer.Sign]), as a future ([Signer.SignAsync]), or through a callback
// ([Signer.SignCallback]).
//
// A [Decoder] splits a token on its first and last separator, decodes the header and the
// payload, and returns either the payload or a [DecodedToken].
//
// # Architecture boundaries
//
// goToken is the public surface: configuration, claims composition, orchestration,
// decoding, the [Error] taxonomy and [Metrics]. Algorithm and key-family resolution live
// in the jwt sub-package; segment encoding lives under internal/.
//
// # What this package must NOT do
//
//   - Verify signatures, generate keys, or handle JWK sets.
//   - Retry, cancel, or time out key resolution.
//   - Log key material.
package goToken
