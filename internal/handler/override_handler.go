package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_tariff/internal/cache"
	"github.com/GTDGit/gtd_tariff/internal/middleware"
	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/service"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// OverrideHandler exposes CRUD over override registries. The registry is
// resolved per request so session overrides stay scoped to their caller.
type OverrideHandler struct {
	registry func(c *gin.Context) *service.OverrideRegistry
}

// NewSessionOverrideHandler serves the caller's simulated tariffs.
func NewSessionOverrideHandler(sessions *cache.SessionOverrideCache) *OverrideHandler {
	return &OverrideHandler{registry: func(c *gin.Context) *service.OverrideRegistry {
		return service.NewSessionOverrideRegistry(sessions.ForSession(c.GetString(middleware.SessionContextKey)))
	}}
}

// NewAdminOverrideHandler serves the shared admin override table.
func NewAdminOverrideHandler(registry *service.OverrideRegistry) *OverrideHandler {
	return &OverrideHandler{registry: func(*gin.Context) *service.OverrideRegistry { return registry }}
}

// List returns every override in insertion order.
func (h *OverrideHandler) List(c *gin.Context) {
	defs, err := h.registry(c).List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Overrides retrieved successfully", gin.H{
		"overrides": defs,
		"total":     len(defs),
	})
}

// Create saves a new override, or replaces the one with the same id.
func (h *OverrideHandler) Create(c *gin.Context) {
	var req models.TariffDefinition
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	saved, err := h.registry(c).Save(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Override saved successfully", saved)
}

// Get returns one override by id.
func (h *OverrideHandler) Get(c *gin.Context) {
	def, err := h.registry(c).GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Override retrieved successfully", def)
}

// Update replaces the override at id.
func (h *OverrideHandler) Update(c *gin.Context) {
	var req models.TariffDefinition
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	updated, err := h.registry(c).Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Override updated successfully", updated)
}

// Delete removes the override at id.
func (h *OverrideHandler) Delete(c *gin.Context) {
	if err := h.registry(c).Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Override deleted successfully", nil)
}

// Clear removes every override in scope.
func (h *OverrideHandler) Clear(c *gin.Context) {
	if err := h.registry(c).Clear(c.Request.Context()); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Overrides cleared successfully", nil)
}
