package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/openpasswd/openpasswd/internal/common"
)

// MasterKeyLength is the size of the per-user AES-256 master key.
const MasterKeyLength = 32

const nonceLength = 12

// Encrypt seals plaintext under key with AES-256-GCM using a fresh random
// 12-byte nonce. The returned layout is nonce || ciphertext+tag, so a row
// is self-contained and ciphertexts never repeat even for identical
// plaintexts.
func Encrypt(key []byte, plaintext string) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return aesgcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens data produced by Encrypt. A payload shorter than the nonce
// or a failed authentication tag yields common.ErrCipherAuthentication:
// callers must treat that as corruption or tampering, not a transient
// error.
func Decrypt(key, data []byte) (string, error) {
	if len(data) < nonceLength {
		return "", common.ErrCipherAuthentication
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating gcm: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, data[:nonceLength], data[nonceLength:], nil)
	if err != nil {
		return "", common.ErrCipherAuthentication
	}

	return string(plaintext), nil
}

// GenerateMasterKey mints the 32-byte symmetric key tied to one user at
// registration time.
func GenerateMasterKey() ([]byte, error) {
	return GenerateRandByteArray(MasterKeyLength)
}

// GenerateRandByteArray returns size bytes from the CSPRNG.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

const recoveryTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRecoveryToken returns a random alphanumeric one-time secret of
// the given length. Only its SHA-256 hash is persisted; the raw value goes
// to the user out-of-band.
func GenerateRecoveryToken(length int) (string, error) {
	raw, err := GenerateRandByteArray(length)
	if err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range raw {
		out[i] = recoveryTokenAlphabet[int(b)%len(recoveryTokenAlphabet)]
	}
	return string(out), nil
}

// HashToken returns the lowercase hex SHA-256 digest of data, the form in
// which recovery tokens are stored and looked up.
func HashToken(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// WipeByteArray overwrites the contents of b with zeros. Used to drop
// sensitive material such as master keys once a request is done with them.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
