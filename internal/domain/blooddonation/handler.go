package blooddonation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects api to run identity.ResolveRole. Every role may use
// the board.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/blood-donations", h.List)
	api.POST("/blood-donations", h.Create)
	api.POST("/blood-donations/:id/pledge", h.Pledge)
}

func (h *Handler) List(c echo.Context) error {
	all, err := h.svc.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return mapError(c, err)
	}
	p := pagination.FromContext(c)
	start, end := p.Bounds(len(all))
	return c.JSON(http.StatusOK, pagination.NewResponse(all[start:end], len(all), p.Limit, p.Offset).
		WithLinks(c.Request().URL.Path))
}

func (h *Handler) Create(c echo.Context) error {
	res := identity.ResolutionFrom(c)
	if res == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := h.svc.Create(c.Request().Context(), res, &d)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) Pledge(c echo.Context) error {
	res := identity.ResolutionFrom(c)
	if res == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	out, err := h.svc.Pledge(c.Request().Context(), res, id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyPledged), errors.Is(err, ErrOwnRequest):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("blood donation request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
