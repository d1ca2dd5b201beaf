package auth

import "context"

type contextKey string

const principalContextKey contextKey = "relay_principal"

// Principal is the authenticated caller of one request.
type Principal struct {
	ID string
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}
