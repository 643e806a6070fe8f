package http

import (
	"net/http"

	"golang-deal-sentinel/internal/sentinel/service"
	"golang-deal-sentinel/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TaskHandler handles HTTP requests for sweep tasks.
type TaskHandler struct {
	sweepService *service.SweepService
	logger       *logger.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(sweepService *service.SweepService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{sweepService: sweepService, logger: logger}
}

// RegisterRoutes registers the task routes to the Echo group.
func (h *TaskHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sweep", h.StartSweep)
	g.GET("/:id", h.GetTaskStatus)
}

// StartSweep launches a sweep in the background and returns its task ID.
func (h *TaskHandler) StartSweep(c echo.Context) error {
	taskID, err := h.sweepService.StartSweepAsync()
	if err != nil {
		h.logger.Error("Failed to start sweep", logger.ErrorField(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Persistence layer unavailable"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"task_id": taskID, "status": "RUNNING"})
}

// GetTaskStatus returns the progress of a running or completed sweep.
func (h *TaskHandler) GetTaskStatus(c echo.Context) error {
	status, err := h.sweepService.GetTaskStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Task not found"})
	}
	return c.JSON(http.StatusOK, status)
}
