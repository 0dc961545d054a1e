package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestPBKDF2SHA1(t *testing.T) {
	t.Parallel()
	// RFC 6070 test vectors
	assert.Equal(t, "0c60c80f961f0e71f3a9b524af6012062fe037a6",
		HexEncodeToString(PBKDF2SHA1([]byte("password"), []byte("salt"), 1, 20)))
	assert.Equal(t, "ea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957",
		HexEncodeToString(PBKDF2SHA1([]byte("password"), []byte("salt"), 2, 20)))
	assert.Len(t, PBKDF2SHA1([]byte("k"), []byte("s"), 1000, 16), 16)
}

func TestEncryptAESCBC(t *testing.T) {
	t.Parallel()
	// NIST SP 800-38A F.2.1, first block
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	iv := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	pt := mustHex(t, "6bc1bee22e409f96e93d7e117393172a")

	ct, err := EncryptAESCBC(key, iv, pt)
	require.NoError(t, err)
	require.Len(t, ct, 32, "aligned input gains a full padding block")
	assert.Equal(t, "7649abac8119b246cee98e9b12e9197d", HexEncodeToString(ct[:16]))

	got, err := DecryptAESCBC(key, iv, ct)
	require.NoError(t, err)
	assert.Equal(t, pt, got)

	_, err = EncryptAESCBC(key, iv[:8], pt)
	require.ErrorIs(t, err, errInvalidIVLength)
	_, err = DecryptAESCBC(key, iv, ct[:20])
	require.ErrorIs(t, err, errInvalidBlockInput)
}

func TestPKCS7(t *testing.T) {
	t.Parallel()
	p := PKCS7Pad([]byte("abc"), 8)
	assert.Equal(t, []byte{'a', 'b', 'c', 5, 5, 5, 5, 5}, p)
	u, err := PKCS7Unpad(p, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), u)

	_, err = PKCS7Unpad([]byte{'a', 'b', 'c', 1, 1, 1, 1, 2}, 8)
	require.ErrorIs(t, err, errInvalidPadding)
	_, err = PKCS7Unpad([]byte{1, 2, 3}, 8)
	require.ErrorIs(t, err, errInvalidPadding)
}

func TestRandomBytesAndBase64(t *testing.T) {
	t.Parallel()
	a, err := RandomBytes(16)
	require.NoError(t, err)
	b, err := RandomBytes(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)

	enc := Base64Encode([]byte("ADMIN:token"))
	assert.Equal(t, "QURNSU46dG9rZW4=", enc)
	dec, err := Base64Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN:token", string(dec))
}
