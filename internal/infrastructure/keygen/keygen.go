// Package keygen generates, parses and hashes taskly API keys.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/rezkam/taskly/internal/domain"
)

// Key layout constants.
const (
	shortTokenBytes = 6  // 12 hex chars
	longSecretBytes = 32 // 43 chars base64
	keyParts        = 5
)

// APIKeyParts represents the components of an API key.
type APIKeyParts struct {
	KeyType    string // e.g., "sk" (secret key) or "pk" (public key)
	Service    string // e.g., "taskly"
	Version    string // e.g., "v1"
	ShortToken string // Short token for lookup (12 hex chars from BLAKE2b hash prefix)
	LongSecret string // Long secret for authentication (43 chars base64)
	FullKey    string // Complete assembled key
}

// GenerateAPIKey creates a new API key following the pattern:
// {key_type}-{service}-{version}-{short_token}-{long_secret}
// Example: sk-taskly-v1-a3f5d8c2b4e6-8h3k2jf9s7d6f5g4h3j2k1m0n9p8q7r6s5t4u3v2w1x
func GenerateAPIKey(keyType, service, version string) (*APIKeyParts, error) {
	for name, v := range map[string]string{"key type": keyType, "service": service, "version": version} {
		if v == "" || strings.Contains(v, "-") {
			return nil, fmt.Errorf("%w: %s must be non-empty and contain no '-'", domain.ErrInvalidAPIKeyFormat, name)
		}
	}

	longBytes := make([]byte, longSecretBytes)
	if _, err := rand.Read(longBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	longSecret := base64.RawURLEncoding.EncodeToString(longBytes)

	// The short token is a prefix of the secret's BLAKE2b hash, so it carries
	// the secret's entropy and never needs its own random source.
	hash := blake2b.Sum256([]byte(longSecret))
	shortToken := hex.EncodeToString(hash[:shortTokenBytes])

	return &APIKeyParts{
		KeyType:    keyType,
		Service:    service,
		Version:    version,
		ShortToken: shortToken,
		LongSecret: longSecret,
		FullKey:    strings.Join([]string{keyType, service, version, shortToken, longSecret}, "-"),
	}, nil
}

// ParseAPIKey parses an API key string into its components.
// The long secret uses base64 URL encoding and may itself contain '-', so only
// the first four separators split the key.
func ParseAPIKey(apiKey string) (*APIKeyParts, error) {
	parts := strings.SplitN(apiKey, "-", keyParts)
	if len(parts) != keyParts {
		return nil, fmt.Errorf("%w: expected %d parts, got %d", domain.ErrInvalidAPIKeyFormat, keyParts, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: part %d is empty", domain.ErrInvalidAPIKeyFormat, i+1)
		}
	}
	if len(parts[3]) != 2*shortTokenBytes {
		return nil, fmt.Errorf("%w: short token must be %d characters", domain.ErrInvalidAPIKeyFormat, 2*shortTokenBytes)
	}
	if _, err := hex.DecodeString(parts[3]); err != nil {
		return nil, fmt.Errorf("%w: short token is not hex", domain.ErrInvalidAPIKeyFormat)
	}

	return &APIKeyParts{
		KeyType:    parts[0],
		Service:    parts[1],
		Version:    parts[2],
		ShortToken: parts[3],
		LongSecret: parts[4],
		FullKey:    apiKey,
	}, nil
}

// GetDisplayKey returns a safe-to-display version of the key showing only prefix and short token.
// Example: "sk-taskly-v1-a3f5d8c2b4e6-****"
func (k *APIKeyParts) GetDisplayKey() string {
	return fmt.Sprintf("%s-%s-%s-%s-****", k.KeyType, k.Service, k.Version, k.ShortToken)
}

// HashSecret computes BLAKE2b-256 hash of the secret and returns hex-encoded string.
func HashSecret(secret string) string {
	hash := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}
