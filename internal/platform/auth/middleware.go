package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var ErrTokenRevoked = errors.New("token revoked")

// Verifier turns a raw bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Principal, error)
}

// Claims is the body of a server-issued session token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// SessionIssuer mints and verifies short-lived HS256 session tokens. It backs
// the shared_key auth mode and unit tests.
type SessionIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(key []byte, issuer string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionIssuer{key: key, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for uid. The returned Principal carries the new token.
func (s *SessionIssuer) Issue(uid, email string) (*Principal, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uid,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &Principal{
		UID:       uid,
		Email:     email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Token:     signed,
	}, nil
}

func (s *SessionIssuer) Verify(_ context.Context, raw string) (*Principal, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("verify session token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("verify session token: missing subject")
	}
	return &Principal{
		UID:       claims.Subject,
		Email:     claims.Email,
		TokenID:   tokenID(claims.ID, raw),
		ExpiresAt: claims.ExpiresAt.Time,
		Token:     raw,
	}, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// Authenticate requires a valid, unrevoked bearer token on every request.
// revoked may be nil.
func Authenticate(v Verifier, revoked RevocationStore, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			ctx := c.Request().Context()
			p, err := v.Verify(ctx, raw)
			if err != nil {
				logger.Debug().Err(err).Msg("token rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(ctx, p.TokenID)
				if err != nil {
					logger.Error().Err(err).Msg("revocation lookup failed")
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session check unavailable")
				}
				if isRevoked {
					return echo.NewHTTPError(http.StatusUnauthorized, ErrTokenRevoked.Error())
				}
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}

// DevAuthMiddleware lets requests without a token act as devUID. Requests
// that do carry a token still go through Authenticate. When v is a
// SessionIssuer the dev principal also carries a freshly minted token, so
// backends that authorize with the caller's bearer accept it.
func DevAuthMiddleware(devUID string, v Verifier, revoked RevocationStore, logger zerolog.Logger) echo.MiddlewareFunc {
	strict := Authenticate(v, revoked, logger)
	issuer, _ := v.(*SessionIssuer)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		verified := strict(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" {
				return verified(c)
			}
			p := &Principal{UID: devUID, TokenID: "dev:" + devUID}
			if issuer != nil {
				minted, err := issuer.Issue(devUID, "")
				if err != nil {
					logger.Error().Err(err).Msg("mint dev session failed")
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
				p.Token, p.ExpiresAt = minted.Token, minted.ExpiresAt
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

// PublicPaths skips auth for exact path matches, used for health, metrics and
// sign-in routes mounted on the same server.
func PublicPaths(mw echo.MiddlewareFunc, paths ...string) echo.MiddlewareFunc {
	public := make(map[string]bool, len(paths))
	for _, p := range paths {
		public[p] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := mw(next)
		return func(c echo.Context) error {
			if public[c.Path()] || public[c.Request().URL.Path] {
				return next(c)
			}
			return guarded(c)
		}
	}
}
