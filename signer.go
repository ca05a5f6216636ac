package goToken

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/MrEthical07/goToken/internal/codec"
	"github.com/MrEthical07/goToken/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Signer defines a public type used by goToken APIs.
//
// Signer instances are immutable after [NewSigner] and safe for concurrent use. The only
// observable side effect of signing is the write into the caller's payload map when
// MutatePayload is set.
type Signer struct {
	alg      jwt.Algorithm
	key      *jwt.Key
	provider keyProvider
	keyID    string
	header   map[string]any
	composer claimsComposer
	metrics  *Metrics
	logger   *zap.Logger
}

// SignResult is the outcome delivered by [Signer.SignAsync].
type SignResult struct {
	Token string
	Err   error
}

// NewSigner describes the newsigner operation and its observable behavior.
//
// NewSigner validates cfg ([CodeInvalidOption]) and, for literal keys, classifies the key
// and checks it against the algorithm ([CodeInvalidKey]) before any payload is seen.
// Resolver keys are classified after every fetch instead.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cloneSignerConfig(cfg)

	s := &Signer{
		alg:      jwt.Algorithm(cfg.Algorithm),
		keyID:    cfg.KeyID,
		header:   cfg.Header,
		composer: newClaimsComposer(cfg),
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}

	mode, provider, _ := classifyKey(cfg.Key)
	switch mode {
	case keyAbsent:
		s.alg = jwt.None
	case keyDeferred:
		s.provider = provider
	case keyLiteral:
		key, err := jwt.InferKey(cfg.Key)
		if err != nil {
			return nil, Wrap(err, CodeInvalidKey, "Invalid private key provided")
		}
		if s.alg == "" {
			s.alg = key.CanonicalAlgorithm()
		} else if err := jwt.CheckCompatible(s.alg, key.Family()); err != nil {
			return nil, Wrap(err, CodeInvalidKey, "Invalid private key provided for algorithm "+s.alg.String())
		}
		s.key = key
	}
	return s, nil
}

// Algorithm returns the signing algorithm. It is empty for a resolver-backed Signer
// configured without one; each call then adopts the fetched key's canonical algorithm.
func (s *Signer) Algorithm() jwt.Algorithm {
	return s.alg
}

// Deferred reports whether keys are obtained from a resolver.
func (s *Signer) Deferred() bool {
	return s.provider != nil
}

// Sign describes the sign operation and its observable behavior.
//
// Sign returns the token for payload (string, []byte, map[string]any or jwt.MapClaims).
// With a literal key it never blocks; with a resolver it waits for the single key fetch.
func (s *Signer) Sign(ctx context.Context, payload any) (string, error) {
	if s.provider == nil {
		return s.signImmediate(payload)
	}
	res := <-s.signDeferred(ctx, payload)
	return res.Token, res.Err
}

// SignAsync returns a channel that receives exactly one [SignResult].
func (s *Signer) SignAsync(ctx context.Context, payload any) <-chan SignResult {
	if s.provider == nil {
		out := make(chan SignResult, 1)
		token, err := s.signImmediate(payload)
		out <- SignResult{Token: token, Err: err}
		return out
	}
	return s.signDeferred(ctx, payload)
}

// SignCallback delivers the outcome to done on another goroutine.
func (s *Signer) SignCallback(ctx context.Context, payload any, done func(token string, err error)) {
	results := s.SignAsync(ctx, payload)
	go func() {
		res := <-results
		done(res.Token, res.Err)
	}()
}

func (s *Signer) signImmediate(payload any) (string, error) {
	start := time.Now()
	header, encodedPayload, err := s.prepare(payload)
	if err != nil {
		return s.finish(start, s.alg, "", err)
	}
	token, err := s.assemble(header, encodedPayload, s.alg, s.key)
	return s.finish(start, s.alg, token, err)
}

func (s *Signer) signDeferred(ctx context.Context, payload any) <-chan SignResult {
	out := make(chan SignResult, 1)
	start := time.Now()

	header, encodedPayload, err := s.prepare(payload)
	if err != nil {
		token, err := s.finish(start, s.alg, "", err)
		out <- SignResult{Token: token, Err: err}
		return out
	}

	fetched := s.provider.fetch(ctx, maps.Clone(header))
	go func() {
		res := <-fetched
		token, alg, err := s.completeDeferred(header, encodedPayload, res)
		token, err = s.finish(start, alg, token, err)
		out <- SignResult{Token: token, Err: err}
	}()
	return out
}

// completeDeferred also returns the algorithm in effect, which is adopted from the key
// when the Signer has none configured.
func (s *Signer) completeDeferred(header map[string]any, encodedPayload string, res keyResult) (string, jwt.Algorithm, error) {
	if res.err != nil {
		s.keyFetchFailed(header, res.err)
		return "", s.alg, Wrap(res.err, CodeKeyFetching, "Cannot fetch key")
	}

	var material []byte
	switch k := res.key.(type) {
	case string:
		material = []byte(k)
	case []byte:
		material = k
	default:
		err := newError(CodeKeyFetching, "The key returned by the resolver must be a string or a byte slice containing a secret or a private key, got %T", res.key)
		s.keyFetchFailed(header, err)
		return "", s.alg, err
	}

	key, err := jwt.InferKey(material)
	if err != nil {
		return "", s.alg, Wrap(err, CodeInvalidKey, "Invalid private key returned by the resolver")
	}

	alg := s.alg
	if alg == "" {
		alg = key.CanonicalAlgorithm()
		header["alg"] = alg.String()
	} else if err := jwt.CheckCompatible(alg, key.Family()); err != nil {
		return "", alg, Wrap(err, CodeInvalidKey, "Invalid private key returned by the resolver for algorithm "+alg.String())
	}
	token, err := s.assemble(header, encodedPayload, alg, key)
	return token, alg, err
}

// prepare validates the payload, composes claims and builds the header. alg is absent
// from the header while a resolver-backed Signer has no configured algorithm.
func (s *Signer) prepare(payload any) (map[string]any, string, error) {
	header := make(map[string]any, 3+len(s.header))
	if s.alg != "" {
		header["alg"] = s.alg.String()
	}

	var encodedPayload string
	switch p := payload.(type) {
	case string:
		encodedPayload = codec.Encode([]byte(p))
	case []byte:
		encodedPayload = codec.Encode(p)
	case map[string]any:
		claims := s.composer.compose(p)
		encoded, err := codec.EncodeJSON(claims)
		if err != nil {
			return nil, "", Wrap(err, CodeInvalidType, "The payload must be JSON serializable")
		}
		s.composer.commit(p, claims)
		encodedPayload = encoded
		header["typ"] = "JWT"
	case gjwt.MapClaims:
		claims := s.composer.compose(map[string]any(p))
		encoded, err := codec.EncodeJSON(claims)
		if err != nil {
			return nil, "", Wrap(err, CodeInvalidType, "The payload must be JSON serializable")
		}
		s.composer.commit(map[string]any(p), claims)
		encodedPayload = encoded
		header["typ"] = "JWT"
	default:
		return nil, "", newError(CodeInvalidType, "The payload must be an object, a string or a byte slice, got %T", payload)
	}

	if s.keyID != "" {
		header["kid"] = s.keyID
	}
	for k, v := range s.header {
		header[k] = v
	}
	return header, encodedPayload, nil
}

func (s *Signer) assemble(header map[string]any, encodedPayload string, alg jwt.Algorithm, key *jwt.Key) (string, error) {
	encodedHeader, err := codec.EncodeJSON(header)
	if err != nil {
		return "", Wrap(err, CodeInvalidOption, "The header must be JSON serializable")
	}
	input := encodedHeader + "." + encodedPayload

	sig, err := jwt.Sign(alg, key, input)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidKey) || errors.Is(err, jwt.ErrIncompatibleKey) {
			return "", Wrap(err, CodeInvalidKey, "Cannot create the signature")
		}
		return "", Wrap(err, CodeSignError, "Cannot create the signature")
	}
	return input + "." + codec.Encode(sig), nil
}

func (s *Signer) finish(start time.Time, alg jwt.Algorithm, token string, err error) (string, error) {
	if err != nil {
		s.metrics.Inc(MetricSignFailure)
		s.logger.Debug("token signing failed",
			zap.String("alg", alg.String()),
			zap.String("code", string(CodeOf(err))),
			zap.Error(err),
		)
		return "", err
	}
	s.metrics.Inc(MetricSignSuccess)
	s.metrics.Observe(MetricSignLatency, time.Since(start))
	s.logger.Debug("token signed", zap.String("alg", alg.String()))
	return token, nil
}

func (s *Signer) keyFetchFailed(header map[string]any, err error) {
	s.metrics.Inc(MetricKeyFetchFailure)
	kid, _ := header["kid"].(string)
	s.logger.Debug("signing key resolution failed", zap.String("kid", kid), zap.Error(err))
}
