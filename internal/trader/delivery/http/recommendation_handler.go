package http

import (
	"net/http"

	"stock-auto-trader/internal/trader/service"
	"stock-auto-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RecommendationHandler exposes the ranked recommendations and buy candidates.
type RecommendationHandler struct {
	recommendations service.RecommendationService
	logger          *logger.Logger
}

func NewRecommendationHandler(recommendations service.RecommendationService, logger *logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations, logger: logger}
}

// RegisterRoutes registers the recommendation routes to the Echo group.
func (h *RecommendationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecommendations)
	g.GET("/buy-candidates", h.GetBuyCandidates)
}

// GetRecommendations godoc
// @Summary Ranked recommendations
// @Description Every scored ticker in buy order, including ones only worth watching
// @Tags recommendations
// @Produce  json
// @Success 200 {array} trading.CompositeRecommendation
// @Failure 500 {object} dto.ErrorResponse
// @Router /recommendations [get]
func (h *RecommendationHandler) GetRecommendations(c echo.Context) error {
	ranked, err := h.recommendations.Rank(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to rank recommendations", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, ranked)
}

// GetBuyCandidates godoc
// @Summary Buy candidates
// @Description Selector output against live cash and holdings. No orders are placed.
// @Tags recommendations
// @Produce  json
// @Success 200 {object} dto.BuyCandidatesResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /recommendations/buy-candidates [get]
func (h *RecommendationHandler) GetBuyCandidates(c echo.Context) error {
	resp, err := h.recommendations.BuyCandidates(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to compute buy candidates", logger.ErrorField(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}
