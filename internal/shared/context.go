package shared

import "context"

// Principal is the authenticated identity attached to a request. The domain
// layer trusts it; credential verification happens in the auth middleware.
type Principal struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

type contextKey string

const principalKey contextKey = "principal"

// ContextWithPrincipal attaches the principal to ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
