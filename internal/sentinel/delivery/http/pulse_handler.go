package http

import (
	"net/http"

	"golang-deal-sentinel/internal/sentinel/service"
	"golang-deal-sentinel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PulseHandler exposes the generated briefings.
type PulseHandler struct {
	pulseService *service.PulseService
	logger       *logger.Logger
}

// NewPulseHandler creates a new PulseHandler.
func NewPulseHandler(pulseService *service.PulseService, logger *logger.Logger) *PulseHandler {
	return &PulseHandler{pulseService: pulseService, logger: logger}
}

// RegisterRoutes registers the pulse routes to the Echo group.
func (h *PulseHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/latest", h.GetLatest)
	g.POST("/generate", h.Generate)
}

// GetLatest returns the most recent briefing.
func (h *PulseHandler) GetLatest(c echo.Context) error {
	pulse, err := h.pulseService.GetLatestPulse(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No pulse generated yet"})
	}
	return c.JSON(http.StatusOK, pulse)
}

// Generate builds a briefing on demand, outside the schedule.
func (h *PulseHandler) Generate(c echo.Context) error {
	pulse, err := h.pulseService.GeneratePulse(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to generate pulse", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate pulse"})
	}
	return c.JSON(http.StatusOK, pulse)
}
