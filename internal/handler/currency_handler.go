package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_tariff/internal/service"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// CurrencyHandler exposes the currency converter.
type CurrencyHandler struct {
	currencyService *service.CurrencyService
}

// NewCurrencyHandler constructs a CurrencyHandler.
func NewCurrencyHandler(currencyService *service.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// GetSupported handles GET /v1/currencies.
func (h *CurrencyHandler) GetSupported(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Currencies retrieved successfully", h.currencyService.GetSupportedCurrencies(c.Request.Context()))
}

// Convert handles GET /v1/currencies/convert?amount=&to=.
func (h *CurrencyHandler) Convert(c *gin.Context) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(c.Query("amount")), 64)
	if err != nil {
		utils.RespondError(c, utils.NewValidationError("amount", "amount must be a number"))
		return
	}
	if amount < 0 {
		utils.RespondError(c, utils.NewValidationError("amount", "amount must not be negative"))
		return
	}

	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	if to == "" {
		to = service.BaseCurrency
	}

	ctx := c.Request.Context()
	utils.Success(c, http.StatusOK, "Amount converted successfully", gin.H{
		"amount":    amount,
		"from":      service.BaseCurrency,
		"to":        to,
		"rate":      h.currencyService.GetExchangeRate(ctx, to),
		"converted": h.currencyService.ConvertFromUSD(ctx, amount, to),
	})
}
