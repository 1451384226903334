package cryptox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpasswd/openpasswd/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)

	ct, err := Encrypt(key, "hello_world")
	require.NoError(t, err)

	pt, err := Decrypt(key, ct)
	require.NoError(t, err)
	assert.Equal(t, "hello_world", pt)
}

func TestEncrypt_NonceIsFresh(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)

	ct1, err := Encrypt(key, "same plaintext")
	require.NoError(t, err)
	ct2, err := Encrypt(key, "same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, ct1, ct2)
}

func TestDecrypt_WrongKey(t *testing.T) {
	k1, err := GenerateMasterKey()
	require.NoError(t, err)
	k2, err := GenerateMasterKey()
	require.NoError(t, err)

	ct, err := Encrypt(k1, "secret")
	require.NoError(t, err)

	_, err = Decrypt(k2, ct)
	assert.True(t, errors.Is(err, common.ErrCipherAuthentication))
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)

	ct, err := Encrypt(key, "secret")
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xff

	_, err = Decrypt(key, ct)
	assert.True(t, errors.Is(err, common.ErrCipherAuthentication))
}

func TestDecrypt_TooShort(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)

	_, err = Decrypt(key, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, common.ErrCipherAuthentication))
}

func TestGenerateRecoveryToken(t *testing.T) {
	tok, err := GenerateRecoveryToken(64)
	require.NoError(t, err)
	assert.Len(t, tok, 64)

	tok2, err := GenerateRecoveryToken(64)
	require.NoError(t, err)
	assert.NotEqual(t, tok, tok2)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestWipeByteArray(t *testing.T) {
	b := []byte{1, 2, 3}
	WipeByteArray(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
