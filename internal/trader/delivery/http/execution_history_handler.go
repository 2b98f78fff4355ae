package http

import (
	"errors"
	"net/http"
	"strconv"

	"stock-auto-trader/internal/trader/service"
	"stock-auto-trader/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ExecutionHistoryHandler handles HTTP requests for execution history.
type ExecutionHistoryHandler struct {
	historyService service.ExecutionHistoryService
	logger         *logger.Logger
}

// NewExecutionHistoryHandler creates a new ExecutionHistoryHandler.
func NewExecutionHistoryHandler(historyService service.ExecutionHistoryService, logger *logger.Logger) *ExecutionHistoryHandler {
	return &ExecutionHistoryHandler{historyService: historyService, logger: logger}
}

// RegisterRoutes registers the execution history routes to the Echo group.
func (h *ExecutionHistoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAllExecutionHistories)
	g.GET("/:id", h.GetExecutionHistoryByID)
}

// GetAllExecutionHistories godoc
// @Summary List job runs
// @Description List job runs newest first, optionally for a single job
// @Tags executions
// @Produce  json
// @Param   job     query   string  false   "Job name"
// @Param   limit   query   int     false   "Page size"
// @Param   offset  query   int     false   "Page offset"
// @Success 200 {array} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /executions [get]
func (h *ExecutionHistoryHandler) GetAllExecutionHistories(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid offset"})
	}

	histories, err := h.historyService.GetAllExecutionHistories(c.Request().Context(), c.QueryParam("job"), limit, offset)
	if err != nil {
		h.logger.Error("Failed to get all execution histories", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get execution histories"})
	}
	return c.JSON(http.StatusOK, histories)
}

// GetExecutionHistoryByID godoc
// @Summary Get a job run by ID
// @Description Get a single execution history record by its ID
// @Tags executions
// @Produce  json
// @Param   id  path    int true    "Execution History ID"
// @Success 200 {object} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /executions/{id} [get]
func (h *ExecutionHistoryHandler) GetExecutionHistoryByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid history ID"})
	}

	history, err := h.historyService.GetExecutionHistoryByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Execution history not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, history)
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}
