package http

import (
	"net/http"

	"stock-auto-trader/internal/trader/service"
	"stock-auto-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PositionHandler exposes on-demand sell evaluation of held positions.
type PositionHandler struct {
	sellService service.SellEvaluationService
	logger      *logger.Logger
}

func NewPositionHandler(sellService service.SellEvaluationService, logger *logger.Logger) *PositionHandler {
	return &PositionHandler{sellService: sellService, logger: logger}
}

// RegisterRoutes registers the position routes to the Echo group.
func (h *PositionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/sell-evaluations", h.GetSellEvaluations)
}

// GetSellEvaluations godoc
// @Summary Evaluate held positions
// @Description Evaluates every holding now without placing orders. Holdings without a price come last with status price_unavailable.
// @Tags positions
// @Produce  json
// @Success 200 {array} dto.SellEvaluationResult
// @Failure 502 {object} dto.ErrorResponse
// @Router /positions/sell-evaluations [get]
func (h *PositionHandler) GetSellEvaluations(c echo.Context) error {
	results, err := h.sellService.EvaluateAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to evaluate positions", logger.ErrorField(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, results)
}
