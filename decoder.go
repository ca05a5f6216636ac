package goToken

import (
	"strings"

	"github.com/MrEthical07/goToken/internal/codec"
	"go.uber.org/zap"
)

// DecodedToken is the complete decomposition of a token.
type DecodedToken struct {
	Header map[string]any
	// Payload is a map[string]any (or other JSON value) when parsed as JSON, else a string.
	Payload any
	// Signature is the trailing segment exactly as it appears in the token.
	Signature string
	// Input is the token up to, not including, the last separator: the bytes a verifier
	// checks the signature against.
	Input string
}

// Decoder defines a public type used by goToken APIs.
//
// A Decoder parses token structure only. It never verifies signatures, so its output must
// not be trusted for authorization decisions.
type Decoder struct {
	json     bool
	complete bool
	metrics  *Metrics
	logger   *zap.Logger
}

// NewDecoder returns a Decoder for cfg. Every DecoderConfig is valid.
func NewDecoder(cfg DecoderConfig) *Decoder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		json:     cfg.JSON,
		complete: cfg.Complete,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Decode describes the decode operation and its observable behavior.
//
// Decode accepts a string or []byte token. It returns a *DecodedToken when the Decoder
// was built with Complete, otherwise just the payload. Any failure aborts the whole
// decode.
func (d *Decoder) Decode(token any) (any, error) {
	decoded, err := d.DecodeToken(token)
	if err != nil {
		return nil, err
	}
	if d.complete {
		return decoded, nil
	}
	return decoded.Payload, nil
}

// DecodeToken is Decode with the complete decomposition regardless of configuration.
func (d *Decoder) DecodeToken(token any) (*DecodedToken, error) {
	decoded, err := d.decode(token)
	if err != nil {
		d.metrics.Inc(MetricDecodeFailure)
		d.logger.Debug("token decoding failed", zap.String("code", string(CodeOf(err))), zap.Error(err))
		return nil, err
	}
	d.metrics.Inc(MetricDecodeSuccess)
	return decoded, nil
}

func (d *Decoder) decode(token any) (*DecodedToken, error) {
	var raw string
	switch t := token.(type) {
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return nil, newError(CodeInvalidType, "The token must be a string or a byte slice, got %T", token)
	}

	first := strings.IndexByte(raw, '.')
	last := strings.LastIndexByte(raw, '.')
	if first == -1 || first >= last {
		return nil, newError(CodeMalformed, "The token is malformed")
	}

	header, err := codec.DecodeObject(raw[:first])
	if err != nil {
		return nil, Wrap(err, CodeMalformed, "The token header is not a valid base64url serialized JSON")
	}

	payloadSegment := raw[first+1 : last]
	var payload any
	if typ, _ := header["typ"].(string); d.json || typ == "JWT" {
		payload, err = codec.DecodeJSON(payloadSegment)
		if err != nil {
			return nil, Wrap(err, CodeMalformed, "The token payload is not a valid base64url serialized JSON")
		}
	} else {
		rawPayload, err := codec.Decode(payloadSegment)
		if err != nil {
			return nil, Wrap(err, CodeMalformed, "The token payload is not a valid base64url string")
		}
		payload = string(rawPayload)
	}

	return &DecodedToken{
		Header:    header,
		Payload:   payload,
		Signature: raw[last+1:],
		Input:     raw[:last],
	}, nil
}
