package middleware

import (
	"context"

	"commontrust-web/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// GetClaims devuelve las claims de la sesión admin si RequireAdmin las dejó en el contexto.
func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}
