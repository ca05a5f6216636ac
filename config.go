package goToken

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/MrEthical07/goToken/jwt"
	"go.uber.org/zap"
)

// SignerConfig defines a public type used by goToken APIs.
//
// SignerConfig is read once by [NewSigner], which validates it and keeps a private copy;
// later changes to the caller's value (including its Header map and Audience slice) do not
// affect the Signer.
type SignerConfig struct {
	// Key is literal key material (string or []byte secret or PEM, *rsa.PrivateKey,
	// *ecdsa.PrivateKey, ed25519.PrivateKey) or a deferred resolver ([KeyFunc],
	// [KeyCallbackFunc], or a plain func of either shape).
	Key any
	// Algorithm is a JOSE alg name. Empty adopts the key's canonical algorithm, or "none"
	// when no key is configured.
	Algorithm string

	NoTimestamp   bool
	MutatePayload bool
	// ClockTimestamp replaces the wall clock as the timestamp base when set. The Unix
	// epoch itself counts as unset.
	ClockTimestamp time.Time
	ExpiresIn      time.Duration
	NotBefore      time.Duration

	JWTID    string
	Audience []string
	Issuer   string
	Subject  string
	Nonce    string
	KeyID    string
	// Header holds custom header fields. It may override typ and kid but not alg.
	Header map[string]any

	Metrics *Metrics
	Logger  *zap.Logger
	// Now is the wall clock; defaults to time.Now.
	Now func() time.Time
}

// DecoderConfig defines a public type used by goToken APIs.
type DecoderConfig struct {
	// JSON forces the payload to be parsed as JSON even without typ "JWT".
	JSON bool
	// Complete returns a *DecodedToken instead of the payload alone.
	Complete bool

	Metrics *Metrics
	Logger  *zap.Logger
}

type keyMode uint8

const (
	keyAbsent keyMode = iota
	keyLiteral
	keyDeferred
)

func cloneSignerConfig(cfg SignerConfig) SignerConfig {
	out := cfg
	out.Audience = slices.Clone(cfg.Audience)
	if cfg.Header != nil {
		out.Header = maps.Clone(cfg.Header)
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

// classifyKey separates literal material from resolvers. Empty secrets and typed nil
// keys count as absent.
func classifyKey(key any) (keyMode, keyProvider, bool) {
	switch k := key.(type) {
	case nil:
		return keyAbsent, nil, true
	case string:
		if k == "" {
			return keyAbsent, nil, true
		}
		return keyLiteral, nil, true
	case []byte:
		if len(k) == 0 {
			return keyAbsent, nil, true
		}
		return keyLiteral, nil, true
	case *rsa.PrivateKey:
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyLiteral, nil, true
	case *ecdsa.PrivateKey:
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyLiteral, nil, true
	case ed25519.PrivateKey:
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyLiteral, nil, true
	case KeyFunc:
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyDeferred, k, true
	case KeyCallbackFunc:
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyDeferred, k, true
	case func(context.Context, map[string]any) (any, error):
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyDeferred, KeyFunc(k), true
	case func(context.Context, map[string]any, func(any, error)):
		if k == nil {
			return keyAbsent, nil, true
		}
		return keyDeferred, KeyCallbackFunc(k), true
	default:
		return keyAbsent, nil, false
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate returns an *Error with [CodeInvalidOption] naming the first offending option.
// It does not classify literal key material; [NewSigner] does that and reports
// [CodeInvalidKey].
func (c *SignerConfig) Validate() error {
	var alg jwt.Algorithm
	if c.Algorithm != "" {
		parsed, err := jwt.ParseAlgorithm(c.Algorithm)
		if err != nil {
			return Wrap(err, CodeInvalidOption, "The algorithm option must be one of HS256, HS384, HS512, RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512, EdDSA or none")
		}
		alg = parsed
	}

	mode, _, ok := classifyKey(c.Key)
	if !ok {
		return newError(CodeInvalidOption, "The key option must be a string, a byte slice, a private key or a key resolver function, got %T", c.Key)
	}
	if alg == jwt.None && mode != keyAbsent {
		return newError(CodeInvalidOption, "The key option must not be provided when the algorithm option is none")
	}
	if alg != "" && alg != jwt.None && mode == keyAbsent {
		return newError(CodeInvalidOption, "The key option is missing")
	}

	if c.ExpiresIn < 0 {
		return newError(CodeInvalidOption, "The expiresIn option must be a non-negative duration")
	}
	if c.NotBefore < 0 {
		return newError(CodeInvalidOption, "The notBefore option must be a non-negative duration")
	}
	if !c.ClockTimestamp.IsZero() && c.ClockTimestamp.Before(time.Unix(0, 0)) {
		return newError(CodeInvalidOption, "The clockTimestamp option must not precede the Unix epoch")
	}
	for _, aud := range c.Audience {
		if aud == "" {
			return newError(CodeInvalidOption, "The aud option must contain only non-empty strings")
		}
	}
	if _, ok := c.Header["alg"]; ok {
		return newError(CodeInvalidOption, "The header option must not set alg; use the algorithm option")
	}
	if len(c.Header) > 0 {
		if _, err := json.Marshal(c.Header); err != nil {
			return Wrap(err, CodeInvalidOption, "The header option must be JSON serializable")
		}
	}
	return nil
}
