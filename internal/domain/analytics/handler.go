package analytics

import (
	"errors"
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
	api.POST("/analytics/risk", h.Risk, identity.RequireKind(identity.KindAdminUser))
}

type riskRequest struct {
	Profiles []*Profile `json:"profiles"`
}

func (h *Handler) Risk(c echo.Context) error {
	var req riskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	report, err := Assess(req.Profiles)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	zerolog.Ctx(c.Request().Context()).Debug().
		Int("profiles", report.Total).
		Int("high_risk", report.HighRiskCount).
		Msg("risk assessed")
	return c.JSON(http.StatusOK, report)
}
