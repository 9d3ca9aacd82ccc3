package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/taskly/internal/domain"
)

type stubProvider struct {
	principal *domain.Principal
	err       error
	calls     int
}

func (s *stubProvider) Identify(context.Context, string) (*domain.Principal, error) {
	s.calls++
	return s.principal, s.err
}

func TestChain_FirstMatchWins(t *testing.T) {
	first := &stubProvider{err: domain.ErrUnauthorized}
	second := &stubProvider{principal: &domain.Principal{UserID: "user-2", Source: "stub"}}
	third := &stubProvider{principal: &domain.Principal{UserID: "user-3"}}

	p, err := Chain{first, second, third}.Identify(context.Background(), "cred")

	require.NoError(t, err)
	assert.Equal(t, "user-2", p.UserID)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_AllReject(t *testing.T) {
	chain := Chain{&stubProvider{err: domain.ErrUnauthorized}, &stubProvider{err: domain.ErrUnauthorized}}

	_, err := chain.Identify(context.Background(), "cred")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = Chain{}.Identify(context.Background(), "cred")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestChain_SurfacesUnexpectedErrors(t *testing.T) {
	boom := errors.New("store down")
	chain := Chain{&stubProvider{err: boom}, &stubProvider{err: domain.ErrUnauthorized}}

	_, err := chain.Identify(context.Background(), "cred")
	assert.ErrorIs(t, err, boom)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithPrincipal(ctx, &domain.Principal{UserID: "user-1"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
}

func TestJWTVerifier_IssueAndIdentify(t *testing.T) {
	v, err := NewJWTVerifier(JWTConfig{Secret: []byte("s3cr3t"), Issuer: "https://id.example.com", Audience: "taskly"})
	require.NoError(t, err)

	token, err := v.IssueToken("user-42", time.Minute)
	require.NoError(t, err)

	p, err := v.Identify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &domain.Principal{UserID: "user-42", Source: SourceJWT}, p)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	secret := []byte("s3cr3t")
	v, err := NewJWTVerifier(JWTConfig{Secret: secret, Issuer: "issuer-a"})
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: "u", Issuer: "issuer-a", ExpiresAt: future})},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, secret, jwt.RegisteredClaims{Subject: "u", Issuer: "issuer-a", ExpiresAt: future})},
		{"expired", sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "u", Issuer: "issuer-a", ExpiresAt: past})},
		{"no expiry", sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "u", Issuer: "issuer-a"})},
		{"wrong issuer", sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "u", Issuer: "issuer-b", ExpiresAt: future})},
		{"no subject", sign(jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Issuer: "issuer-a", ExpiresAt: future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Identify(context.Background(), tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier(JWTConfig{})
	assert.ErrorIs(t, err, ErrJWTSecretRequired)
}
