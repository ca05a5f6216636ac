package goToken

import (
	"encoding/json"
	"math"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// claimsComposer turns a structured payload into the final claim set.
//
// Precedence: payload fields < fixed claims < iat/exp/nbf.
type claimsComposer struct {
	fixed       map[string]any
	noTimestamp bool
	clock       time.Time
	expiresIn   time.Duration
	notBefore   time.Duration
	// mutate selects the output mode: commit writes the claims back into the caller's map.
	mutate bool
	now    func() time.Time
}

func newClaimsComposer(cfg SignerConfig) claimsComposer {
	fixed := make(map[string]any, 5)
	if cfg.JWTID != "" {
		fixed["jti"] = cfg.JWTID
	}
	switch len(cfg.Audience) {
	case 0:
	case 1:
		fixed["aud"] = cfg.Audience[0]
	default:
		fixed["aud"] = append([]string(nil), cfg.Audience...)
	}
	if cfg.Issuer != "" {
		fixed["iss"] = cfg.Issuer
	}
	if cfg.Subject != "" {
		fixed["sub"] = cfg.Subject
	}
	if cfg.Nonce != "" {
		fixed["nonce"] = cfg.Nonce
	}

	return claimsComposer{
		fixed:       fixed,
		noTimestamp: cfg.NoTimestamp,
		clock:       cfg.ClockTimestamp,
		expiresIn:   cfg.ExpiresIn,
		notBefore:   cfg.NotBefore,
		mutate:      cfg.MutatePayload,
		now:         cfg.Now,
	}
}

// compose always builds a private claim set; the caller's map is only touched by commit.
func (c claimsComposer) compose(payload map[string]any) map[string]any {
	base := c.timestampBase(payload)

	out := make(map[string]any, len(payload)+len(c.fixed)+3)
	for k, v := range payload {
		out[k] = v
	}

	for k, v := range c.fixed {
		out[k] = v
	}
	if !c.noTimestamp {
		out["iat"] = floorSeconds(base)
	}
	if c.expiresIn > 0 {
		out["exp"] = floorSeconds(base + float64(c.expiresIn.Milliseconds()))
	}
	if c.notBefore > 0 {
		out["nbf"] = floorSeconds(base + float64(c.notBefore.Milliseconds()))
	}
	return out
}

// commit writes claims into payload when mutating. It runs only after claims encoded
// successfully, so a failed call leaves the caller's map as it was.
func (c claimsComposer) commit(payload, claims map[string]any) {
	if !c.mutate || payload == nil {
		return
	}
	for k, v := range claims {
		payload[k] = v
	}
}

// timestampBase returns milliseconds since the epoch. An iat already in the payload wins
// over ClockTimestamp; a ClockTimestamp of zero milliseconds counts as unset.
func (c claimsComposer) timestampBase(payload map[string]any) float64 {
	if iat, ok := numericClaim(payload["iat"]); ok && iat != 0 {
		return iat * 1000
	}
	if !c.clock.IsZero() {
		if ms := c.clock.UnixMilli(); ms != 0 {
			return float64(ms)
		}
	}
	return float64(c.now().UnixMilli())
}

func floorSeconds(ms float64) int64 {
	return int64(math.Floor(ms / 1000))
}

func numericClaim(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case *gjwt.NumericDate:
		if n == nil {
			return 0, false
		}
		f = float64(n.UnixNano()) / float64(time.Second)
	case gjwt.NumericDate:
		f = float64(n.UnixNano()) / float64(time.Second)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
