package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/auth"
)

const resolutionKey = "identity.resolution"

// ResolveRole resolves the authenticated principal on every request and
// stores the Resolution on the echo context.
func ResolveRole(r *Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			uid := auth.UserIDFromContext(ctx)
			if uid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			res, err := r.Resolve(ctx, uid)
			if err != nil {
				if errors.Is(err, ErrRoleNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, ErrRoleNotFound.Error())
				}
				zerolog.Ctx(ctx).Error().Err(err).Str("uid", uid).Msg("role resolution failed")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "identity backend unavailable")
			}
			c.Set(resolutionKey, res)
			return next(c)
		}
	}
}

// ResolutionFrom returns the Resolution stored by ResolveRole, or nil.
func ResolutionFrom(c echo.Context) *Resolution {
	res, _ := c.Get(resolutionKey).(*Resolution)
	return res
}

// WithResolution stores res on c. Used by tests and by handlers that resolve
// on their own.
func WithResolution(c echo.Context, res *Resolution) {
	c.Set(resolutionKey, res)
}

// RequireKind rejects callers whose resolved kind is not in kinds. It must
// run after ResolveRole.
func RequireKind(kinds ...RoleKind) echo.MiddlewareFunc {
	allowed := make(map[RoleKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := ResolutionFrom(c)
			if res == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !allowed[res.Kind] {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		}
	}
}
