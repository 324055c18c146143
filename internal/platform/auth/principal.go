package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller. UID is the identity provider's
// stable subject, the key every role record is stored under.
type Principal struct {
	UID       string
	Email     string
	TokenID   string
	ExpiresAt time.Time
	// Token is the raw bearer token, forwarded to backends that authorize
	// per user.
	Token string
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UID
	}
	return ""
}

// BearerFromContext returns the caller's raw token, or "".
func BearerFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Token
	}
	return ""
}

// tokenID returns jti when the issuer set one. ID tokens from some providers
// carry no jti, so the token digest stands in.
func tokenID(jti, raw string) string {
	if jti != "" {
		return jti
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
