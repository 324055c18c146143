package assignment

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

// RegisterRoutes expects api to run identity.ResolveRole.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	volunteer := identity.RequireKind(identity.KindVolunteer)
	api.GET("/assignments/volunteer", h.VolunteerView, volunteer)
	api.POST("/assignments/:id/accept", h.Accept, volunteer)
	api.PUT("/assignments/:id/submission", h.Submit, volunteer)

	admin := identity.RequireKind(identity.KindAdminUser)
	api.GET("/assignments", h.List, admin)
	api.POST("/assignments", h.Create, admin)
	api.PUT("/assignments/:id", h.Update, admin)
	api.DELETE("/assignments/:id", h.Delete, admin)
}

func recordID(c echo.Context) int64 {
	if res := identity.ResolutionFrom(c); res != nil && res.Record != nil {
		return res.Record.RecordID()
	}
	return 0
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) VolunteerView(c echo.Context) error {
	v, err := h.svc.VolunteerView(c.Request().Context(), recordID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Accept(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Accept(c.Request().Context(), recordID(c), id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var sub Submission
	if err := (&echo.DefaultBinder{}).BindBody(c, &sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Submit(c.Request().Context(), recordID(c), id, &sub)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) Create(c echo.Context) error {
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Create(c.Request().Context(), recordID(c), &d)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var d Draft
	if err := (&echo.DefaultBinder{}).BindBody(c, &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), id, &d)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotAssigned):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("assignment request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
