package jwt

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidKey is returned when key material cannot be classified into a supported family.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnsupportedKeyType is returned for Go values that are never key material.
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

var oidRSAPSS = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}

var pemPrefix = []byte("-----BEGIN")

// Key is classified key material.
//
// Key instances are created by [InferKey] and treated as immutable afterwards.
type Key struct {
	family  Family
	secret  []byte
	private crypto.Signer
	curve   Algorithm
}

type pkcs8Envelope struct {
	Version    int
	Algo       pkix.AlgorithmIdentifier
	PrivateKey []byte
}

// InferKey describes the inferkey operation and its observable behavior.
//
// InferKey classifies material without side effects. Byte material (string or []byte) that
// does not carry a PEM block is an HMAC secret. PEM material must hold a private key; the
// raw bytes are retained either way so HMAC algorithms can sign with them.
func InferKey(material any) (*Key, error) {
	switch v := material.(type) {
	case string:
		return inferBytes([]byte(v))
	case []byte:
		return inferBytes(bytes.Clone(v))
	case *rsa.PrivateKey:
		if v == nil {
			return nil, fmt.Errorf("%w: nil rsa key", ErrInvalidKey)
		}
		return &Key{family: FamilyRSA, private: v}, nil
	case *ecdsa.PrivateKey:
		if v == nil {
			return nil, fmt.Errorf("%w: nil ecdsa key", ErrInvalidKey)
		}
		return newECKey(v)
	case ed25519.PrivateKey:
		if len(v) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("%w: ed25519 key has %d bytes", ErrInvalidKey, len(v))
		}
		return &Key{family: FamilyEd, private: v}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, material)
	}
}

func inferBytes(raw []byte) (*Key, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty key material", ErrInvalidKey)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), pemPrefix) {
		return &Key{family: FamilyHMAC, secret: raw}, nil
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%w: malformed PEM block", ErrInvalidKey)
	}

	var (
		key *Key
		err error
	)
	switch block.Type {
	case "RSA PRIVATE KEY":
		var rsaKey *rsa.PrivateKey
		rsaKey, err = gjwt.ParseRSAPrivateKeyFromPEM(raw)
		if err == nil {
			key = &Key{family: FamilyRSA, private: rsaKey}
		}
	case "EC PRIVATE KEY":
		var ecKey *ecdsa.PrivateKey
		ecKey, err = gjwt.ParseECPrivateKeyFromPEM(raw)
		if err == nil {
			key, err = newECKey(ecKey)
		}
	case "PRIVATE KEY":
		key, err = parsePKCS8(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: PEM block %q is not a supported private key", ErrInvalidKey, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key.secret = raw
	return key, nil
}

func parsePKCS8(der []byte) (*Key, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		// crypto/x509 does not know id-RSASSA-PSS; the inner key is plain PKCS#1.
		var env pkcs8Envelope
		if _, asnErr := asn1.Unmarshal(der, &env); asnErr != nil || !env.Algo.Algorithm.Equal(oidRSAPSS) {
			return nil, err
		}
		rsaKey, pssErr := x509.ParsePKCS1PrivateKey(env.PrivateKey)
		if pssErr != nil {
			return nil, pssErr
		}
		return &Key{family: FamilyRSAPSS, private: rsaKey}, nil
	}

	switch k := parsed.(type) {
	case *rsa.PrivateKey:
		return &Key{family: FamilyRSA, private: k}, nil
	case *ecdsa.PrivateKey:
		return newECKey(k)
	case ed25519.PrivateKey:
		return &Key{family: FamilyEd, private: k}, nil
	default:
		return nil, fmt.Errorf("unsupported PKCS#8 key %T", parsed)
	}
}

func newECKey(k *ecdsa.PrivateKey) (*Key, error) {
	var alg Algorithm
	switch k.Curve {
	case elliptic.P256():
		alg = ES256
	case elliptic.P384():
		alg = ES384
	case elliptic.P521():
		alg = ES512
	default:
		return nil, fmt.Errorf("%w: unsupported curve %s", ErrInvalidKey, k.Curve.Params().Name)
	}
	return &Key{family: FamilyEC, private: k, curve: alg}, nil
}

// Family reports the classified family.
func (k *Key) Family() Family {
	if k == nil {
		return FamilyUnknown
	}
	return k.family
}

// CanonicalAlgorithm is the algorithm adopted when the caller did not name one.
func (k *Key) CanonicalAlgorithm() Algorithm {
	switch k.Family() {
	case FamilyHMAC:
		return HS256
	case FamilyRSA:
		return RS256
	case FamilyRSAPSS:
		return PS256
	case FamilyEC:
		return k.curve
	case FamilyEd:
		return EdDSA
	default:
		return ""
	}
}

// signingKey returns the value golang-jwt expects for alg.
func (k *Key) signingKey(alg Algorithm) (any, error) {
	if alg.Family() == FamilyHMAC {
		if len(k.secret) == 0 {
			return nil, fmt.Errorf("%w: %s requires secret bytes", ErrInvalidKey, alg)
		}
		return k.secret, nil
	}
	if k.private == nil {
		return nil, fmt.Errorf("%w: %s requires a private key", ErrInvalidKey, alg)
	}
	return k.private, nil
}
