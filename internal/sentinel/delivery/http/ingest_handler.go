package http

import (
	"net/http"

	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/service"
	"golang-deal-sentinel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IngestHandler handles the manual and bulk ingestion endpoints.
type IngestHandler struct {
	ingestService *service.IngestService
	logger        *logger.Logger
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService *service.IngestService, logger *logger.Logger) *IngestHandler {
	return &IngestHandler{ingestService: ingestService, logger: logger}
}

// RegisterRoutes registers the ingestion routes to the Echo group.
func (h *IngestHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/intelligence", h.IngestIntelligence)
	g.POST("/historical-batch", h.ImportHistorical)
	g.POST("/watchlist", h.ImportWatchlist)
}

// IngestIntelligence runs deep extraction and enrichment over free text and
// persists the result. A duplicate company is reported, not re-stored.
func (h *IngestHandler) IngestIntelligence(c echo.Context) error {
	var req dto.IngestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.SourceText == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "source_text is required"})
	}

	signal, created, err := h.ingestService.IngestText(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Intelligence ingestion failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if !created {
		return c.JSON(http.StatusOK, echo.Map{"status": "duplicate", "signal": signal})
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "created", "signal": signal})
}

// ImportHistorical bulk-imports structured deals without AI extraction.
func (h *IngestHandler) ImportHistorical(c echo.Context) error {
	var deals []dto.HistoricalDeal
	if err := c.Bind(&deals); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	imported, err := h.ingestService.ImportHistorical(c.Request().Context(), deals)
	if err != nil {
		h.logger.Error("Historical import failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to import deals"})
	}
	return c.JSON(http.StatusOK, dto.ImportResult{Status: "ok", Imported: imported})
}

// ImportWatchlist accepts a multipart CSV upload of watchlist targets.
func (h *IngestHandler) ImportWatchlist(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing 'file' upload"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cannot read uploaded file"})
	}
	defer file.Close()

	tenantID := c.QueryParam("tenant_id")
	imported, err := h.ingestService.ImportWatchlistCSV(c.Request().Context(), tenantID, fileHeader.Filename, file)
	if err != nil {
		h.logger.Error("Watchlist import failed", logger.ErrorField(err),
			logger.StringField("filename", fileHeader.Filename))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, dto.ImportResult{Status: "ok", Imported: imported})
}
