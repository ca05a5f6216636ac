package jwt

import (
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// ErrSignatureFailed wraps failures of the underlying signing method that are not key errors.
var ErrSignatureFailed = errors.New("signature computation failed")

// Sign computes the raw signature of input with alg. It returns nil for [None].
//
// Key rejections by golang-jwt surface wrapped in [ErrInvalidKey]; anything else in
// [ErrSignatureFailed].
func Sign(alg Algorithm, key *Key, input string) ([]byte, error) {
	if alg == None {
		return nil, nil
	}
	if key == nil {
		return nil, fmt.Errorf("%w: missing key for %s", ErrInvalidKey, alg)
	}
	if err := CheckCompatible(alg, key.Family()); err != nil {
		return nil, err
	}

	method := gjwt.GetSigningMethod(string(alg))
	if method == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	sk, err := key.signingKey(alg)
	if err != nil {
		return nil, err
	}

	sig, err := method.Sign(input, sk)
	if err != nil {
		if errors.Is(err, gjwt.ErrInvalidKey) || errors.Is(err, gjwt.ErrInvalidKeyType) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}
	return sig, nil
}
