package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testKeyPEM = `-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA
-----END PUBLIC KEY-----`

func TestKeyFingerprint(t *testing.T) {
	fp := KeyFingerprint(testKeyPEM)
	assert.Len(t, fp, 64, "sha-256 hex digest")

	// Surrounding whitespace must not change the fingerprint.
	assert.Equal(t, fp, KeyFingerprint(testKeyPEM+"\n"))
	assert.Equal(t, fp, KeyFingerprint("  \n"+testKeyPEM+"\n\n"))

	assert.NotEqual(t, fp, KeyFingerprint(testKeyPEM+"x"))
}

func TestPublicKeyValidate(t *testing.T) {
	valid := PublicKey{
		Fingerprint: KeyFingerprint(testKeyPEM),
		KeyValue:    testKeyPEM,
		UserID:      "11111111-1111-1111-1111-111111111111",
	}
	assert.NoError(t, valid.Validate())

	missingUser := valid
	missingUser.UserID = ""
	assert.ErrorContains(t, missingUser.Validate(), "user id")

	missingKey := valid
	missingKey.KeyValue = ""
	assert.ErrorContains(t, missingKey.Validate(), "key material")

	missingFingerprint := valid
	missingFingerprint.Fingerprint = ""
	assert.ErrorContains(t, missingFingerprint.Validate(), "fingerprint")
}
