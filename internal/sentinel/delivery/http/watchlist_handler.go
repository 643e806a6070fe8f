package http

import (
	"net/http"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WatchlistHandler manages a tenant's monitored companies.
type WatchlistHandler struct {
	watchlistRepo repository.WatchlistRepository
	logger        *logger.Logger
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(watchlistRepo repository.WatchlistRepository, logger *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlistRepo: watchlistRepo, logger: logger}
}

// RegisterRoutes registers the watchlist routes to the Echo group.
func (h *WatchlistHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListTargets)
	g.POST("", h.CreateTarget)
}

// ListTargets returns all watchlist targets for the tenant.
func (h *WatchlistHandler) ListTargets(c echo.Context) error {
	targets, err := h.watchlistRepo.List(c.Request().Context(), tenantFromRequest(c))
	if err != nil {
		h.logger.Error("Failed to list watchlist targets", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list watchlist targets"})
	}
	return c.JSON(http.StatusOK, targets)
}

// CreateTarget adds a single monitored company.
func (h *WatchlistHandler) CreateTarget(c echo.Context) error {
	var req dto.CreateWatchlistTargetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.CompanyName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name is required"})
	}

	target := &entity.WatchlistTarget{
		TenantID:         tenantFromRequest(c),
		CompanyName:      req.CompanyName,
		Notes:            req.Notes,
		MonitoringActive: true,
		AddedAt:          time.Now().UTC(),
	}
	if err := h.watchlistRepo.Create(c.Request().Context(), target); err != nil {
		h.logger.Error("Failed to create watchlist target", logger.ErrorField(err),
			logger.StringField("company", req.CompanyName))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create watchlist target"})
	}
	return c.JSON(http.StatusCreated, target)
}
