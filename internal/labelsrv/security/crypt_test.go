package security

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	ct, err := EncryptAESGCM(key, "shpat_0123456789abcdef")
	require.NoError(t, err)
	assert.NotContains(t, ct, "shpat_")

	pt, err := DecryptAESGCM(key, ct)
	require.NoError(t, err)
	assert.Equal(t, "shpat_0123456789abcdef", pt)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	ct, err := EncryptAESGCM(testKey(t), "secret")
	require.NoError(t, err)

	_, err = DecryptAESGCM(testKey(t), ct)
	assert.Error(t, err)
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	_, err := DecryptAESGCM(testKey(t), base64.RawURLEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestLoadKeyFromBase64(t *testing.T) {
	key := testKey(t)
	loaded, err := LoadKeyFromBase64(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, loaded)

	_, err = LoadKeyFromBase64(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.Error(t, err)

	_, err = LoadKeyFromBase64("not-base64!!")
	assert.Error(t, err)
}
