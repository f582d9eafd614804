package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_tariff/internal/service"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// CatalogHandler exposes admin maintenance of the rate table and product
// catalog.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListRates handles GET /v1/admin/rates.
func (h *CatalogHandler) ListRates(c *gin.Context) {
	rates, err := h.catalogService.ListRates(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Tariff rates retrieved successfully", gin.H{
		"rates": rates,
		"total": len(rates),
	})
}

// SaveRate handles PUT /v1/admin/rates.
func (h *CatalogHandler) SaveRate(c *gin.Context) {
	var req service.RateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	rate, err := h.catalogService.SaveRate(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Tariff rate saved successfully", rate)
}

// DeleteRate handles DELETE /v1/admin/rates/:importing/:exporting.
func (h *CatalogHandler) DeleteRate(c *gin.Context) {
	if err := h.catalogService.DeleteRate(c.Request.Context(), c.Param("importing"), c.Param("exporting")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Tariff rate deleted successfully", nil)
}

// CreateProduct handles POST /v1/admin/products.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError("body", "invalid request body"))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Product created successfully", product)
}

// GetProduct handles GET /v1/admin/products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.RespondError(c, utils.NewValidationError("id", "product id must be a positive integer"))
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Product retrieved successfully", product)
}
