package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_tariff/internal/metrics"
	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// ProductFinder looks products up by name in store order.
type ProductFinder interface {
	FindByName(ctx context.Context, name string) ([]models.Product, error)
}

// RateFinder looks up the rate table row for (importing, exporting).
// A missing row is (nil, nil).
type RateFinder interface {
	FindByCountryPair(ctx context.Context, importing, exporting string) (*models.TariffRate, error)
}

// ExchangeRater supplies USD-relative exchange rates.
type ExchangeRater interface {
	GetExchangeRate(ctx context.Context, code string) float64
}

// CalculationRequest describes one shipment.
type CalculationRequest struct {
	Product       string  `json:"product"`
	ExportingFrom string  `json:"exportingFrom"`
	ImportingTo   string  `json:"importingTo"`
	Quantity      float64 `json:"quantity"`
	CustomCost    string  `json:"customCost,omitempty"`
	Currency      string  `json:"currency,omitempty"`
}

// TariffService computes landed cost for a single shipment.
type TariffService struct {
	products ProductFinder
	rates    RateFinder
	fta      *FTAClassifier
	currency ExchangeRater
}

// NewTariffService constructs a TariffService.
func NewTariffService(products ProductFinder, rates RateFinder, fta *FTAClassifier, currency ExchangeRater) *TariffService {
	return &TariffService{products: products, rates: rates, fta: fta, currency: currency}
}

// Calculate resolves the rate table rate for the route and returns the cost
// breakdown in the requested currency.
func (s *TariffService) Calculate(ctx context.Context, req CalculationRequest) (*models.CalculationResult, error) {
	return s.CalculateWithMode(ctx, req, GlobalMode{})
}

// CalculateWithMode dispatches on mode: GlobalMode uses the rate table,
// SimulatedMode an override definition. A simulated calculation with no
// matching override fails with a NotFoundError like every other missing
// resource.
func (s *TariffService) CalculateWithMode(ctx context.Context, req CalculationRequest, mode CalculationMode) (result *models.CalculationResult, err error) {
	if mode == nil {
		mode = GlobalMode{}
	}
	defer func() { metrics.RecordOperation("calculate_"+mode.Name(), err) }()

	in, err := normalizeCalculation(req)
	if err != nil {
		return nil, err
	}

	product, err := resolveProduct(ctx, s.products, in.Product)
	if err != nil {
		return nil, err
	}
	unitCost := in.unitCost(product)

	var applied appliedRate
	switch m := mode.(type) {
	case GlobalMode:
		applied, err = s.globalRate(ctx, in.ImportingTo, in.ExportingFrom)
	case SimulatedMode:
		applied, err = simulatedRate(in, m)
	default:
		err = fmt.Errorf("unsupported calculation mode %T", mode)
	}
	if err != nil {
		return nil, err
	}

	return s.build(ctx, in, product, unitCost, applied), nil
}

type appliedRate struct {
	rate   float64
	label  string
	hasFTA bool
}

func (s *TariffService) globalRate(ctx context.Context, importing, exporting string) (appliedRate, error) {
	row, err := s.rates.FindByCountryPair(ctx, importing, exporting)
	if err != nil {
		return appliedRate{}, err
	}
	if row == nil {
		return appliedRate{}, utils.NewNotFoundError("tariff_rate",
			"no tariff data found for %s importing from %s", importing, exporting)
	}
	return selectRate(s.fta, importing, exporting, row), nil
}

// selectRate picks the preferential field for FTA pairs and the standard
// field otherwise.
func selectRate(fta *FTAClassifier, importing, exporting string, row *models.TariffRate) appliedRate {
	if fta.HasFTA(importing, exporting) {
		return appliedRate{rate: row.Preferential(), label: models.RateLabelFTA, hasFTA: true}
	}
	return appliedRate{rate: row.Standard(), label: models.RateLabelMFN}
}

func simulatedRate(in calculationInput, mode SimulatedMode) (appliedRate, error) {
	def := FindMatchingOverride(mode.OverrideID, in.Product, in.ExportingFrom, in.ImportingTo, mode.Candidates)
	if def == nil {
		if mode.OverrideID != "" {
			return appliedRate{}, utils.NewNotFoundError("override",
				"simulated tariff %q does not apply to %s from %s to %s", mode.OverrideID, in.Product, in.ExportingFrom, in.ImportingTo)
		}
		return appliedRate{}, utils.NewNotFoundError("override",
			"no simulated tariff defined for %s from %s to %s", in.Product, in.ExportingFrom, in.ImportingTo)
	}
	label := def.Type
	if label == "" {
		label = "Simulated"
	}
	return appliedRate{rate: def.Rate, label: label + " " + models.RateLabelUserDefined}, nil
}

func (s *TariffService) build(ctx context.Context, in calculationInput, product *models.Product, unitCost decimal.Decimal, applied appliedRate) *models.CalculationResult {
	productCostUSD := unitCost.Mul(decimal.NewFromFloat(in.Quantity)).InexactFloat64()
	tariffUSD := productCostUSD * applied.rate / 100

	fx := s.currency.GetExchangeRate(ctx, in.Currency)
	productCost := productCostUSD * fx
	tariffAmount := tariffUSD * fx
	totalCost := productCost + tariffAmount

	return &models.CalculationResult{
		Product:       product.Name,
		ExportingFrom: in.ExportingFrom,
		ImportingTo:   in.ImportingTo,
		Quantity:      in.Quantity,
		Unit:          product.Unit,
		ProductCost:   productCost,
		TariffAmount:  tariffAmount,
		TotalCost:     totalCost,
		TariffRate:    applied.rate,
		TariffType:    applied.label,
		HasFTA:        applied.hasFTA,
		Currency:      in.Currency,
		Breakdown: []models.BreakdownItem{
			{Description: "Product Cost", Category: "Base", Rate: "100%", Amount: productCost},
			{Description: "Import Tariff", Category: applied.label, Rate: formatPercent(applied.rate), Amount: tariffAmount},
		},
	}
}

// calculationInput is a validated, trimmed CalculationRequest.
type calculationInput struct {
	CalculationRequest
	customCost *decimal.Decimal
}

func (in calculationInput) unitCost(p *models.Product) decimal.Decimal {
	if in.customCost != nil {
		return *in.customCost
	}
	return p.Cost()
}

// normalizeCalculation validates every input before any data access.
func normalizeCalculation(req CalculationRequest) (calculationInput, error) {
	in := calculationInput{CalculationRequest: req}
	in.Product = strings.TrimSpace(req.Product)
	in.ExportingFrom = strings.TrimSpace(req.ExportingFrom)
	in.ImportingTo = strings.TrimSpace(req.ImportingTo)
	in.Currency = normalizeCurrency(req.Currency)

	switch {
	case in.Product == "":
		return in, utils.NewValidationError("product", "product is required")
	case in.ExportingFrom == "":
		return in, utils.NewValidationError("exportingFrom", "origin country is required")
	case in.ImportingTo == "":
		return in, utils.NewValidationError("importingTo", "destination country is required")
	case in.Quantity <= 0:
		return in, utils.NewValidationError("quantity", "quantity must be greater than 0")
	}

	cost, err := parseCustomCost(req.CustomCost)
	if err != nil {
		return in, err
	}
	in.customCost = cost
	return in, nil
}

// parseCustomCost parses an optional decimal override of the unit cost.
// Blank means "use the stored cost".
func parseCustomCost(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, utils.NewValidationError("customCost", "invalid custom cost format")
	}
	if d.IsNegative() {
		return nil, utils.NewValidationError("customCost", "custom cost must not be negative")
	}
	return &d, nil
}

// resolveProduct returns the first product with name. Several products may
// share a name; the match in store order wins and the ambiguity is logged.
func resolveProduct(ctx context.Context, finder ProductFinder, name string) (*models.Product, error) {
	products, err := finder.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, utils.NewNotFoundError("product", "product %q not found", name)
	}
	if len(products) > 1 {
		log.Warn().Str("product", name).Int("matches", len(products)).Int("chosen_id", products[0].ID).
			Msg("ambiguous product name, using first match")
	}
	return &products[0], nil
}

func formatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}
