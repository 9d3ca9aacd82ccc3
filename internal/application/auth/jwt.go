package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rezkam/taskly/internal/domain"
)

// SourceJWT marks principals authenticated with an identity provider token.
const SourceJWT = "jwt"

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken when none is given.
const DefaultTokenTTL = time.Hour

// ErrJWTSecretRequired is returned when a JWT verifier is built without a secret.
var ErrJWTSecretRequired = errors.New("jwt secret is required")

// JWTConfig configures HS256 verification of identity provider tokens.
type JWTConfig struct {
	Secret   []byte
	Issuer   string // optional; enforced when set
	Audience string // optional; enforced when set
	Leeway   time.Duration
}

// JWTVerifier validates HS256-signed tokens whose subject is the user ID.
type JWTVerifier struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTVerifier creates a verifier. The secret must be non-empty.
func NewJWTVerifier(config JWTConfig) (*JWTVerifier, error) {
	if len(config.Secret) == 0 {
		return nil, ErrJWTSecretRequired
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &JWTVerifier{config: config, parser: jwt.NewParser(opts...)}, nil
}

// Identify implements IdentityProvider for signed tokens.
func (v *JWTVerifier) Identify(ctx context.Context, credential string) (*domain.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(credential, claims, func(*jwt.Token) (any, error) {
		return v.config.Secret, nil
	})
	if err != nil {
		slog.DebugContext(ctx, "jwt rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Principal{UserID: claims.Subject, Source: SourceJWT}, nil
}

// IssueToken mints a token for userID with the verifier's issuer and audience.
// A non-positive ttl gets DefaultTokenTTL.
func (v *JWTVerifier) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if v.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
