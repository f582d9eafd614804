package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_tariff/internal/service"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// ComparisonHandler serves multi-destination comparisons and rate history.
type ComparisonHandler struct {
	comparisonService *service.ComparisonService
}

// NewComparisonHandler constructs a ComparisonHandler.
func NewComparisonHandler(comparisonService *service.ComparisonService) *ComparisonHandler {
	return &ComparisonHandler{comparisonService: comparisonService}
}

// Compare handles POST /v1/tariffs/compare.
func (h *ComparisonHandler) Compare(c *gin.Context) {
	var req service.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	result, err := h.comparisonService.CompareMultipleCountries(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Countries compared successfully", result)
}

// History handles GET /v1/tariffs/history.
func (h *ComparisonHandler) History(c *gin.Context) {
	var req service.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("query", "invalid query parameters"))
		return
	}

	result, err := h.comparisonService.GetTariffHistory(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Tariff history retrieved successfully", result)
}

// Trends handles POST /v1/tariffs/trends.
func (h *ComparisonHandler) Trends(c *gin.Context) {
	var req service.TrendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	result, err := h.comparisonService.GetTariffTrends(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Tariff trends retrieved successfully", result)
}
