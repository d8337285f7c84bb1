package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"iamkernel/apperror"
)

// apiKeySecretBytes is the amount of random entropy in the secret portion
// of an API key, before base64 encoding.
const apiKeySecretBytes = 32

// pbkdf2Iterations satisfies spec §1.4's "PBKDF2 with >= 100000 iterations".
const pbkdf2Iterations = 100_000

const pbkdf2KeyLen = 32

// GeneratedAPIKey is the one-time plaintext material returned to the caller
// at creation time; only Prefix and the PBKDF2 hash of Secret are persisted.
type GeneratedAPIKey struct {
	Decorator  string
	Secret     string
	Prefix     string
	Salt       string
	SecretHash string
	Plaintext  string // "<decorator>-<secret>", shown to the caller exactly once
}

// GenerateAPIKey creates a new API key in the "<decorator>-<secret>" wire
// format described in spec §3/§1.4.
func GenerateAPIKey(decorator string) (*GeneratedAPIKey, error) {
	secretBytes := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to generate API key secret", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)

	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to generate API key salt", err)
	}
	salt := base64.RawURLEncoding.EncodeToString(saltBytes)

	hash := hashAPIKeySecret(secret, salt)
	prefix := apiKeyPrefix(secret)

	return &GeneratedAPIKey{
		Decorator:  decorator,
		Secret:     secret,
		Prefix:     prefix,
		Salt:       salt,
		SecretHash: hash,
		Plaintext:  fmt.Sprintf("%s-%s", decorator, secret),
	}, nil
}

// apiKeyPrefix returns the first 8 characters of the secret, used as an
// indexed lookup key so the store never has to scan the full secret column.
func apiKeyPrefix(secret string) string {
	if len(secret) <= 8 {
		return secret
	}
	return secret[:8]
}

func hashAPIKeySecret(secret, salt string) string {
	derived := pbkdf2.Key([]byte(secret), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(derived)
}

// ParseAPIKey splits a presented credential into decorator and secret if it
// matches the "<decorator>-<secret>" shape; ok is false for anything else,
// letting the principal resolver fall through to its next matcher.
func ParseAPIKey(presented string) (decorator, secret string, ok bool) {
	idx := strings.IndexByte(presented, '-')
	if idx <= 0 || idx == len(presented)-1 {
		return "", "", false
	}
	return presented[:idx], presented[idx+1:], true
}

// VerifyAPIKeySecret recomputes the PBKDF2 hash of secret with the stored
// salt and compares it in constant time against storedHash.
func VerifyAPIKeySecret(secret, salt, storedHash string) error {
	computed := hashAPIKeySecret(secret, salt)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) != 1 {
		return apperror.Unauthenticated()
	}
	return nil
}

// Prefix exposes apiKeyPrefix for callers (store lookups) outside this
// package, e.g. principal.Resolve needs it to build the indexed query.
func Prefix(secret string) string { return apiKeyPrefix(secret) }
