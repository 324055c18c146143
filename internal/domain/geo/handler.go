// Package geo exposes reverse geocoding to the portal's location pickers.
package geo

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/geocode"
)

// Reverser resolves coordinates. geocode.Client satisfies it.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error)
}

type Handler struct {
	geo Reverser
}

func NewHandler(geo Reverser) *Handler {
	return &Handler{geo: geo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/geo/reverse", h.Reverse)
}

func coord(c echo.Context, name string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(c.QueryParam(name), 64)
	if err != nil || v < -limit || v > limit {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func (h *Handler) Reverse(c echo.Context) error {
	lat, err := coord(c, "lat", 90)
	if err != nil {
		return err
	}
	lng, err := coord(c, "lng", 180)
	if err != nil {
		return err
	}

	place, err := h.geo.Reverse(c.Request().Context(), lat, lng)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, place)
	case errors.Is(err, geocode.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "no address found for location")
	}
	zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("reverse geocode failed")
	return echo.NewHTTPError(http.StatusBadGateway, "location lookup failed")
}
