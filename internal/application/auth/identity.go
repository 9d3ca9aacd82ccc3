package auth

import (
	"context"
	"errors"

	"github.com/rezkam/taskly/internal/domain"
)

// IdentityProvider resolves a bearer credential to the calling user.
// Implementations return domain.ErrUnauthorized for credentials they reject.
type IdentityProvider interface {
	Identify(ctx context.Context, credential string) (*domain.Principal, error)
}

// Chain tries each provider in order and returns the first principal found.
type Chain []IdentityProvider

// Identify implements IdentityProvider.
// Unexpected provider errors are returned as-is so callers can log them;
// if every provider simply rejects the credential the result is domain.ErrUnauthorized.
func (c Chain) Identify(ctx context.Context, credential string) (*domain.Principal, error) {
	var unexpected error
	for _, p := range c {
		principal, err := p.Identify(ctx, credential)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) && unexpected == nil {
			unexpected = err
		}
	}
	if unexpected != nil {
		return nil, unexpected
	}
	return nil, domain.ErrUnauthorized
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// UserIDFromContext returns the authenticated user ID, or "" when unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.UserID
	}
	return ""
}
