package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SignalHandler exposes the curation surface over stored signals.
type SignalHandler struct {
	signalRepo repository.SignalRepository
	logger     *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(signalRepo repository.SignalRepository, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{signalRepo: signalRepo, logger: logger}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListSignals)
	g.PATCH("/:id/review", h.ReviewSignal)
}

// ListSignals returns stored signals, optionally filtered by type, source
// family, minimum conviction, and review status.
func (h *SignalHandler) ListSignals(c echo.Context) error {
	filter := repository.SignalFilter{
		SignalType:   entity.SignalType(c.QueryParam("signal_type")),
		SourceFamily: entity.SourceFamily(c.QueryParam("source_family")),
		ReviewStatus: entity.ReviewStatus(c.QueryParam("review_status")),
	}
	if v := c.QueryParam("min_conviction"); v != "" {
		minConviction, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid min_conviction"})
		}
		filter.MinConviction = minConviction
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		filter.Limit = limit
	}

	signals, err := h.signalRepo.Find(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list signals"})
	}
	return c.JSON(http.StatusOK, signals)
}

// ReviewSignal updates the review status of one signal. reviewed_at is set
// server-side.
func (h *SignalHandler) ReviewSignal(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signal ID"})
	}

	var req dto.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	switch req.ReviewStatus {
	case entity.ReviewStatusNone, entity.ReviewStatusWatchlist, entity.ReviewStatusIgnored:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid review_status"})
	}

	if err := h.signalRepo.UpdateReviewStatus(c.Request().Context(), uint(id), req.ReviewStatus); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Signal not found"})
		}
		h.logger.Error("Failed to update review status", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update review status"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
