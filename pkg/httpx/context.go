package httpx

import "context"

type ctxKey string

const (
	CtxKeyClientID ctxKey = "client_id"
	CtxKeyScopes   ctxKey = "scopes"
	CtxKeyTokenID  ctxKey = "token_id"
)

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, clientID, tokenID string, scopes []string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyClientID, clientID)
	ctx = context.WithValue(ctx, CtxKeyTokenID, tokenID)
	return context.WithValue(ctx, CtxKeyScopes, scopes)
}

// ClientIDFromContext returns the authenticated client, or "".
func ClientIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyClientID).(string)
	return v
}

// TokenIDFromContext returns the jti of the presented token, or "".
func TokenIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyTokenID).(string)
	return v
}

// ScopesFromContext returns the scope snapshot of the presented token.
func ScopesFromContext(ctx context.Context) []string {
	v, _ := ctx.Value(CtxKeyScopes).([]string)
	return v
}
