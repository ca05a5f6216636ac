package jwt

import (
	"errors"
	"fmt"
)

// Algorithm defines a public type used by goToken APIs.
//
// Algorithm values are the JOSE "alg" names accepted by the signer.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
	EdDSA Algorithm = "EdDSA"
	// None produces unsigned tokens with an empty signature segment.
	None Algorithm = "none"
)

// Family is the cryptographic category of an algorithm or a key.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyHMAC
	FamilyRSA
	FamilyRSAPSS
	FamilyEC
	FamilyEd
	FamilyNone
	familyCount
)

var (
	// ErrUnsupportedAlgorithm is returned for algorithm names outside the supported set.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrIncompatibleKey is returned when a key's family cannot sign with the expected algorithm.
	ErrIncompatibleKey = errors.New("key is incompatible with algorithm")
)

var algorithmFamilies = map[Algorithm]Family{
	HS256: FamilyHMAC, HS384: FamilyHMAC, HS512: FamilyHMAC,
	RS256: FamilyRSA, RS384: FamilyRSA, RS512: FamilyRSA,
	PS256: FamilyRSAPSS, PS384: FamilyRSAPSS, PS512: FamilyRSAPSS,
	ES256: FamilyEC, ES384: FamilyEC, ES512: FamilyEC,
	EdDSA: FamilyEd,
	None:  FamilyNone,
}

// compatible[expected][actual] reports whether a key of family actual may sign for an
// algorithm of family expected. HMAC secrets are untyped, so HMAC accepts every row.
var compatible = [familyCount][familyCount]bool{
	FamilyHMAC: {
		FamilyUnknown: true, FamilyHMAC: true, FamilyRSA: true, FamilyRSAPSS: true,
		FamilyEC: true, FamilyEd: true, FamilyNone: true,
	},
	FamilyRSA:    {FamilyRSA: true, FamilyRSAPSS: true},
	FamilyRSAPSS: {FamilyRSA: true, FamilyRSAPSS: true},
	FamilyEC:     {FamilyEC: true},
	FamilyEd:     {FamilyEd: true},
}

// ParseAlgorithm validates name against the supported set, "none" included.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name)
	if _, ok := algorithmFamilies[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

// Family returns the family of a, or FamilyUnknown for unsupported names.
func (a Algorithm) Family() Family {
	return algorithmFamilies[a]
}

// Supported reports whether a is one of the enumerated algorithms.
func (a Algorithm) Supported() bool {
	_, ok := algorithmFamilies[a]
	return ok
}

func (a Algorithm) String() string {
	return string(a)
}

// CheckCompatible describes the checkcompatible operation and its observable behavior.
//
// CheckCompatible returns an error wrapping [ErrIncompatibleKey], naming expected, when a key
// of family actual cannot produce signatures for expected.
func CheckCompatible(expected Algorithm, actual Family) error {
	fam := expected.Family()
	if fam == FamilyUnknown || fam == FamilyNone || actual >= familyCount {
		return fmt.Errorf("%w: invalid key for algorithm %s", ErrIncompatibleKey, expected)
	}
	if !compatible[fam][actual] {
		return fmt.Errorf("%w: invalid key for algorithm %s", ErrIncompatibleKey, expected)
	}
	return nil
}

func (f Family) String() string {
	switch f {
	case FamilyHMAC:
		return "hmac"
	case FamilyRSA:
		return "rsa"
	case FamilyRSAPSS:
		return "rsa-pss"
	case FamilyEC:
		return "ec"
	case FamilyEd:
		return "ed"
	case FamilyNone:
		return "none"
	default:
		return "unknown"
	}
}
