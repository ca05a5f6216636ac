package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// ErrNotObject is returned by DecodeObject when the segment holds valid JSON that is not
// an object.
var ErrNotObject = errors.New("segment is not a JSON object")

// Padded segments are tolerated on the way in; output is always unpadded.
var segmentParser = gjwt.NewParser(gjwt.WithPaddingAllowed())

// Encode returns the base64url (unpadded) form of raw.
func Encode(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// EncodeJSON serializes v and returns its base64url form.
func EncodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Encode(raw), nil
}

// Decode reverses Encode.
func Decode(segment string) ([]byte, error) {
	return segmentParser.DecodeSegment(segment)
}

// DecodeJSON decodes segment and parses the resulting bytes as any JSON value.
func DecodeJSON(segment string) (any, error) {
	raw, err := Decode(segment)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeObject is DecodeJSON restricted to JSON objects.
func DecodeObject(segment string) (map[string]any, error) {
	v, err := DecodeJSON(segment)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}
