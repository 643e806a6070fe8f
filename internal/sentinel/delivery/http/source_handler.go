package http

import (
	"net/http"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/common"
	"golang-deal-sentinel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SourceHandler manages a tenant's configured feed sources.
type SourceHandler struct {
	sourceRepo repository.SourceRepository
	logger     *logger.Logger
}

// NewSourceHandler creates a new SourceHandler.
func NewSourceHandler(sourceRepo repository.SourceRepository, logger *logger.Logger) *SourceHandler {
	return &SourceHandler{sourceRepo: sourceRepo, logger: logger}
}

// RegisterRoutes registers the source routes to the Echo group.
func (h *SourceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListSources)
	g.PUT("", h.ReplaceSources)
}

// ListSources returns the tenant's stored sources, seeding the defaults on
// first access.
func (h *SourceHandler) ListSources(c echo.Context) error {
	tenantID := tenantFromRequest(c)
	sources, err := h.sourceRepo.GetActiveSources(c.Request().Context(), tenantID)
	if err != nil {
		h.logger.Error("Failed to list sources", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list sources"})
	}
	return c.JSON(http.StatusOK, sources)
}

// ReplaceSources swaps the tenant's source set for the submitted one.
func (h *SourceHandler) ReplaceSources(c echo.Context) error {
	var req dto.UpdateSourcesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if len(req.Sources) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "At least one source is required"})
	}

	tenantID := tenantFromRequest(c)
	sources := make([]entity.Source, 0, len(req.Sources))
	for _, src := range req.Sources {
		if src.URL == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Source URL is required"})
		}
		sourceType := entity.SourceType(src.Type)
		if sourceType == "" {
			sourceType = entity.SourceTypeRSS
		}
		sources = append(sources, entity.Source{
			TenantID:   tenantID,
			Name:       src.Name,
			URL:        src.URL,
			Type:       sourceType,
			Active:     src.Active,
			SignalType: entity.SignalType(src.SignalType),
		})
	}

	if err := h.sourceRepo.Replace(c.Request().Context(), tenantID, sources); err != nil {
		h.logger.Error("Failed to replace sources", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to replace sources"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "count": len(sources)})
}

func tenantFromRequest(c echo.Context) string {
	if tenantID := c.QueryParam("tenant_id"); tenantID != "" {
		return tenantID
	}
	return common.DefaultTenantID
}
