package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityContextKey contextKey = "service_identity"

// WithIdentity stores the verified token subject on ctx.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityContextKey).(string)
	return identity, ok
}

// ExtractBearerToken returns the credential of an "Authorization: Bearer"
// header, or "" when the header is missing or uses another scheme.
func ExtractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
