package auth

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
)

// Errors for malformed verification inputs. A signature that simply
// does not match is not an error; Verify returns (false, nil) for that.
var (
	ErrMalformedPublicKey = errors.New("malformed public key")
	ErrNotRSAPublicKey    = errors.New("public key is not an RSA key")
	ErrMalformedSignature = errors.New("malformed signature encoding")
	ErrMalformedPayload   = errors.New("malformed signed payload")
)

// ParseRSAPublicKey parses a PEM-encoded RSA public key. Both PKIX
// (BEGIN PUBLIC KEY) and PKCS#1 (BEGIN RSA PUBLIC KEY) encodings are
// accepted, matching what common keygen tooling emits.
func ParseRSAPublicKey(keyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, ErrMalformedPublicKey
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPublicKey, err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, ErrNotRSAPublicKey
		}
		return rsaKey, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPublicKey, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrMalformedPublicKey, block.Type)
	}
}

// CanonicalPayload compacts the raw JSON bytes of a signed payload.
// Key order is preserved exactly as sent; only insignificant
// whitespace is stripped, so the client signs and the server verifies
// the same byte sequence.
func CanonicalPayload(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrMalformedPayload
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return buf.Bytes(), nil
}

// VerifySignature checks an RSA-PSS SHA-256 signature over the
// canonical form of the signed payload.
//
// The signature is expected as standard base64. A signature that fails
// the cryptographic check returns (false, nil); only malformed inputs
// (undecodable key, signature, or payload) produce an error.
func VerifySignature(keyPEM string, payload json.RawMessage, signatureB64 string) (bool, error) {
	pub, err := ParseRSAPublicKey(keyPEM)
	if err != nil {
		return false, err
	}

	canonical, err := CanonicalPayload(payload)
	if err != nil {
		return false, err
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	digest := sha256.Sum256(canonical)
	if err := rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, nil); err != nil {
		return false, nil
	}
	return true, nil
}
