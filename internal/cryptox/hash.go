// Package cryptox implements the cryptographic primitives of the server:
// argon2id password hashing and AES-GCM encryption of stored account
// passwords.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/openpasswd/openpasswd/internal/common"
)

// Argon2id parameters (OWASP interactive-login recommendations).
const (
	argon2Time      = 3
	argon2Memory    = 64 * 1024 // KiB
	argon2Threads   = 2
	argon2KeyLength = 32
	saltLength      = 16
)

// HashPassword derives an argon2id hash of password with a fresh random
// salt and encodes it in the self-describing PHC format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<digest>
//
// The parameters travel with the hash, so they can be tuned later without
// invalidating stored credentials.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)

	return encoded, nil
}

// VerifyPassword recomputes the digest of password using the parameters
// embedded in encoded and compares in constant time. A hash string that
// does not parse yields common.ErrInvalidHashFormat; attacker-supplied
// input must never panic here.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, common.ErrInvalidHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, common.ErrInvalidHashFormat
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported argon2 version %d", common.ErrInvalidHashFormat, version)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, common.ErrInvalidHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, common.ErrInvalidHashFormat
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, common.ErrInvalidHashFormat
	}
	if len(digest) == 0 {
		return false, common.ErrInvalidHashFormat
	}

	candidate := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(digest)))

	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}
