package shared

import (
	"context"

	"github.com/cabildo-gob/cabildo/internal/authz"
)

type sessionContextKey struct{}

type principalContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithPrincipal stores the evaluation-time principal in context. The
// principal is rebuilt per request from the session snapshot, never mutated.
func ContextWithPrincipal(ctx context.Context, p *authz.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Nil when the
// request is unauthenticated; the kernel denies everything for nil.
func PrincipalFromContext(ctx context.Context) *authz.Principal {
	p, _ := ctx.Value(principalContextKey{}).(*authz.Principal)
	return p
}
