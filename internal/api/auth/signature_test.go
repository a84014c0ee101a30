package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return priv, string(pemBytes)
}

func signPayload(t *testing.T, priv *rsa.PrivateKey, payload []byte) string {
	t.Helper()

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], nil)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifySignatureValid(t *testing.T) {
	priv, pubPEM := generateTestKeyPair(t)

	payload := json.RawMessage(`{"nonce":"1234567890","fingerprint":"abc"}`)
	canonical, err := CanonicalPayload(payload)
	require.NoError(t, err)

	sig := signPayload(t, priv, canonical)

	ok, err := VerifySignature(pubPEM, payload, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifySignatureWhitespaceInsensitive(t *testing.T) {
	priv, pubPEM := generateTestKeyPair(t)

	// The client signs the compact form; the server must verify even if
	// the payload arrives pretty-printed.
	compact := []byte(`{"nonce":"1234567890","fingerprint":"abc"}`)
	pretty := json.RawMessage("{\n  \"nonce\": \"1234567890\",\n  \"fingerprint\": \"abc\"\n}")

	sig := signPayload(t, priv, compact)

	ok, err := VerifySignature(pubPEM, pretty, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	priv, pubPEM := generateTestKeyPair(t)

	sig := signPayload(t, priv, []byte(`{"nonce":"1234567890"}`))

	ok, err := VerifySignature(pubPEM, json.RawMessage(`{"nonce":"9999999999"}`), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifySignatureWrongKey(t *testing.T) {
	priv, _ := generateTestKeyPair(t)
	_, otherPEM := generateTestKeyPair(t)

	payload := json.RawMessage(`{"nonce":"1234567890"}`)
	sig := signPayload(t, priv, []byte(payload))

	ok, err := VerifySignature(otherPEM, payload, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifySignatureMalformedInputs(t *testing.T) {
	_, pubPEM := generateTestKeyPair(t)
	payload := json.RawMessage(`{"nonce":"1234567890"}`)

	t.Run("bad base64", func(t *testing.T) {
		_, err := VerifySignature(pubPEM, payload, "not!!base64")
		assert.ErrorIs(t, err, ErrMalformedSignature)
	})

	t.Run("bad pem", func(t *testing.T) {
		_, err := VerifySignature("garbage", payload, "aGVsbG8=")
		assert.ErrorIs(t, err, ErrMalformedPublicKey)
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := VerifySignature(pubPEM, json.RawMessage("{broken"), "aGVsbG8=")
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := VerifySignature(pubPEM, nil, "aGVsbG8=")
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestParseRSAPublicKeyPKCS1(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der := x509.MarshalPKCS1PublicKey(&priv.PublicKey)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der})

	key, err := ParseRSAPublicKey(string(pemBytes))
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey.N, key.N)
}
