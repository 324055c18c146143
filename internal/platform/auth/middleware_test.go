package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (*Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Principal
	err := mw(func(c echo.Context) error {
		got = PrincipalFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})(c)
	return got, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	_, err := runMiddleware(t, Authenticate(issuer, nil, zerolog.Nop()), "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuthenticate_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, Authenticate(issuer, nil, zerolog.Nop()), tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestAuthenticate_IssuedToken(t *testing.T) {
	issuer := NewSessionIssuer(testSigningKey, "portal", time.Hour)
	session, err := issuer.Issue("firebase-uid-1", "asha@example.org")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	p, err := runMiddleware(t, Authenticate(issuer, nil, zerolog.Nop()), "Bearer "+session.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.UID != "firebase-uid-1" {
		t.Fatalf("expected principal firebase-uid-1, got %+v", p)
	}
	if p.Email != "asha@example.org" {
		t.Errorf("expected email to be carried, got %q", p.Email)
	}
	if p.TokenID != session.TokenID {
		t.Errorf("expected token id %q, got %q", session.TokenID, p.TokenID)
	}
	if p.Token != session.Token {
		t.Error("expected raw token to be kept for forwarding")
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := createTestToken(t, claims, testSigningKey)

	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	_, err := runMiddleware(t, Authenticate(issuer, nil, zerolog.Nop()), "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuthenticate_MissingExpiry(t *testing.T) {
	token := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "forever"}}, testSigningKey)

	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	_, err := runMiddleware(t, Authenticate(issuer, nil, zerolog.Nop()), "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuthenticate_WrongKey(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token := createTestToken(t, claims, []byte("some-other-key-of-sufficient-size"))

	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	_, err := runMiddleware(t, Authenticate(issuer, nil, zerolog.Nop()), "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	session, _ := issuer.Issue("uid-9", "")

	store := NewMemoryRevocationStore(time.Minute)
	defer store.Close()
	store.Revoke(context.Background(), session.TokenID, session.ExpiresAt)

	_, err := runMiddleware(t, Authenticate(issuer, store, zerolog.Nop()), "Bearer "+session.Token)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware_NoToken(t *testing.T) {
	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	p, err := runMiddleware(t, DevAuthMiddleware("dev-user", issuer, nil, zerolog.Nop()), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.UID != "dev-user" {
		t.Fatalf("expected dev-user principal, got %+v", p)
	}
	if p.TokenID != "dev:dev-user" {
		t.Errorf("expected stable dev token id, got %q", p.TokenID)
	}
	verified, err := issuer.Verify(context.Background(), p.Token)
	if err != nil {
		t.Fatalf("expected a forwardable dev token: %v", err)
	}
	if verified.UID != "dev-user" {
		t.Errorf("expected minted token for dev-user, got %q", verified.UID)
	}
}

func TestDevAuthMiddleware_TokenStillVerified(t *testing.T) {
	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	_, err := runMiddleware(t, DevAuthMiddleware("dev-user", issuer, nil, zerolog.Nop()), "Bearer not-a-jwt")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestPublicPaths(t *testing.T) {
	issuer := NewSessionIssuer(testSigningKey, "", time.Hour)
	mw := PublicPaths(Authenticate(issuer, nil, zerolog.Nop()), "/health")

	e := echo.New()
	for path, wantErr := range map[string]bool{"/health": false, "/api/v1/me": true} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		err := mw(func(c echo.Context) error { return nil })(c)
		if (err != nil) != wantErr {
			t.Errorf("%s: expected error=%v, got %v", path, wantErr, err)
		}
	}
}

func TestTokenID_FallsBackToDigest(t *testing.T) {
	if tokenID("abc", "raw") != "abc" {
		t.Error("expected jti to win")
	}
	a, b := tokenID("", "raw-1"), tokenID("", "raw-2")
	if a == "" || a == b {
		t.Errorf("expected distinct digests, got %q and %q", a, b)
	}
}
