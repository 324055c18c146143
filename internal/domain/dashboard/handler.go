package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes expects api to run identity.ResolveRole.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.GetDashboard)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	res := identity.ResolutionFrom(c)
	if res == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	d, err := ComposeResolution(res)
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("kind", string(res.Kind)).Msg("compose dashboard")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, d)
}
