package facility

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
	hospitalAccess := identity.RequireKind(identity.KindHospitalAdmin, identity.KindAdminUser)
	shopAccess := identity.RequireKind(identity.KindMedicalShopAdmin, identity.KindAdminUser)

	api.POST("/hospitals", h.CreateHospital, identity.RequireKind(identity.KindHospitalAdmin))
	api.GET("/hospitals/:id", h.getter(KindHospital), hospitalAccess)
	api.PUT("/hospitals/:id", h.UpdateHospital, hospitalAccess)

	api.POST("/medical-shops", h.CreateMedicalShop, identity.RequireKind(identity.KindMedicalShopAdmin))
	api.GET("/medical-shops/:id", h.getter(KindMedicalShop), shopAccess)
	api.PUT("/medical-shops/:id", h.UpdateMedicalShop, shopAccess)

	api.GET("/facilities", h.ListFacilities, identity.RequireKind(identity.KindAdminUser))
}

// ProvisionError is the body of a failed provisioning response.
type ProvisionError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	EntityID int64  `json:"entity_id,omitempty"`
}

func (h *Handler) CreateHospital(c echo.Context) error {
	var d HospitalDraft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.provision(c, &d)
}

func (h *Handler) CreateMedicalShop(c echo.Context) error {
	var d MedicalShopDraft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.provision(c, &d)
}

func (h *Handler) provision(c echo.Context, d Draft) error {
	ctx := c.Request().Context()
	res, err := h.svc.Provision(ctx, identity.ResolutionFrom(c), d)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, res)
	case errors.Is(err, ErrAlreadyProvisioned):
		body := ProvisionError{Code: "already_provisioned", Message: "an entity is already linked to this admin"}
		if res != nil {
			body.EntityID = res.EntityID
		}
		return echo.NewHTTPError(http.StatusConflict, body)
	}

	var se *StepError
	if errors.As(err, &se) {
		zerolog.Ctx(ctx).Error().Err(se.Err).Str("step", string(se.Step)).Bool("rolled_back", se.RolledBack).
			Msg("provisioning failed")
		return echo.NewHTTPError(http.StatusBadGateway, ProvisionError{
			Code:    "provisioning_failed",
			Message: "could not create " + displayName(d.Kind()),
		})
	}
	return mapError(c, err)
}

func (h *Handler) getter(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		e, err := h.svc.Get(c.Request().Context(), identity.ResolutionFrom(c), kind, id)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(http.StatusOK, e)
	}
}

func (h *Handler) UpdateHospital(c echo.Context) error {
	var d HospitalDraft
	return h.update(c, &d)
}

func (h *Handler) UpdateMedicalShop(c echo.Context) error {
	var d MedicalShopDraft
	return h.update(c, &d)
}

func (h *Handler) update(c echo.Context, d Draft) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := h.svc.Update(c.Request().Context(), identity.ResolutionFrom(c), id, d)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListFacilities(c echo.Context) error {
	p := pagination.FromContext(c)
	f, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func displayName(k Kind) string {
	if k == KindMedicalShop {
		return "medical shop"
	}
	return "hospital"
}

func mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "facility not found")
	case errors.Is(err, ErrAdminNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("facility request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
