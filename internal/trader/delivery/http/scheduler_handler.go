package http

import (
	"errors"
	"net/http"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/service"
	"stock-auto-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SchedulerHandler controls the in-process scheduler.
type SchedulerHandler struct {
	scheduler service.SchedulerService
	logger    *logger.Logger
}

func NewSchedulerHandler(scheduler service.SchedulerService, logger *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler, logger: logger}
}

// RegisterRoutes registers the scheduler routes to the Echo group.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetStatus)
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.POST("/jobs/:name/run", h.RunJob)
}

// GetStatus godoc
// @Summary Scheduler status
// @Description Enabled flag and per-job last and next run
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Router /scheduler [get]
func (h *SchedulerHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// Start godoc
// @Summary Enable scheduled runs
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Router /scheduler/start [post]
func (h *SchedulerHandler) Start(c echo.Context) error {
	h.scheduler.Enable()
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// Stop godoc
// @Summary Disable scheduled runs
// @Description Cron ticks are dropped until the scheduler is started again. Manual runs still work.
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Router /scheduler/stop [post]
func (h *SchedulerHandler) Stop(c echo.Context) error {
	h.scheduler.Disable()
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// RunJob godoc
// @Summary Run a job now
// @Description Runs the job synchronously, ignoring market hours and the enabled flag
// @Tags scheduler
// @Accept  json
// @Produce  json
// @Param   name  path    string              true   "Job name"
// @Param   body  body    dto.RunJobRequest   false  "Run options"
// @Success 200 {object} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ExecutionHistoryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /scheduler/jobs/{name}/run [post]
func (h *SchedulerHandler) RunJob(c echo.Context) error {
	var req dto.RunJobRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
		}
	}

	name := c.Param("name")
	history, err := h.scheduler.RunNow(c.Request().Context(), name, req.DryRun)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		h.logger.Error("Failed to run job", logger.StringField("job", name), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if history.Status == string(entity.StatusSkipped) {
		return c.JSON(http.StatusConflict, history)
	}
	return c.JSON(http.StatusOK, history)
}
