package symptom

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// RegisterRoutes mounts the analyzer for any signed-in caller.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/ai/symptoms", h.Analyze)
}

func (h *Handler) Analyze(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.analyzer.Analyze(c.Request().Context(), &req)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, res)
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("symptom analysis failed")
	return echo.NewHTTPError(http.StatusBadGateway, "failed to analyze symptoms, please try again")
}
