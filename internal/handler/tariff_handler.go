package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_tariff/internal/cache"
	"github.com/GTDGit/gtd_tariff/internal/middleware"
	"github.com/GTDGit/gtd_tariff/internal/service"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// TariffHandler serves single-shipment calculations.
type TariffHandler struct {
	tariffService *service.TariffService
	sessions      *cache.SessionOverrideCache
}

// NewTariffHandler constructs a TariffHandler. Simulated calculations read
// their candidate overrides from the caller's session.
func NewTariffHandler(tariffService *service.TariffService, sessions *cache.SessionOverrideCache) *TariffHandler {
	return &TariffHandler{tariffService: tariffService, sessions: sessions}
}

type calculateRequest struct {
	service.CalculationRequest
	Mode       string `json:"mode"`
	OverrideID string `json:"overrideId"`
}

// Calculate handles POST /v1/tariffs/calculate.
func (h *TariffHandler) Calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	modeName, err := service.ParseMode(req.Mode)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var mode service.CalculationMode = service.GlobalMode{}
	if modeName == service.ModeSimulated {
		registry := service.NewSessionOverrideRegistry(h.sessions.ForSession(c.GetString(middleware.SessionContextKey)))
		candidates, err := registry.List(c.Request.Context())
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		mode = service.SimulatedMode{OverrideID: req.OverrideID, Candidates: candidates}
	}

	result, err := h.tariffService.CalculateWithMode(c.Request.Context(), req.CalculationRequest, mode)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, "Tariff calculated successfully", result)
}
