package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/GTDGit/gtd_tariff/internal/metrics"
	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// CompareRequest describes one shipment priced against several destinations.
type CompareRequest struct {
	Product       string   `json:"product"`
	ExportingFrom string   `json:"exportingFrom"`
	Destinations  []string `json:"destinations"`
	Quantity      float64  `json:"quantity"`
	CustomCost    string   `json:"customCost,omitempty"`
	Currency      string   `json:"currency,omitempty"`
}

// HistoryRequest selects a monthly rate series for one route.
type HistoryRequest struct {
	Product       string `form:"product" json:"product"`
	ExportingFrom string `form:"exportingFrom" json:"exportingFrom"`
	ImportingTo   string `form:"importingTo" json:"importingTo"`
	StartDate     string `form:"startDate" json:"startDate,omitempty"`
	EndDate       string `form:"endDate" json:"endDate,omitempty"`
}

// TrendsRequest selects monthly rate series for several destinations.
type TrendsRequest struct {
	Product       string   `json:"product"`
	ExportingFrom string   `json:"exportingFrom"`
	Destinations  []string `json:"destinations"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
}

// ComparisonService ranks destinations for a shipment by total landed cost.
type ComparisonService struct {
	products    ProductFinder
	rates       RateFinder
	fta         *FTAClassifier
	currency    ExchangeRater
	history     HistoryGenerator
	concurrency int
	now         func() time.Time
}

// NewComparisonService constructs a ComparisonService. concurrency bounds the
// parallel per-destination lookups.
func NewComparisonService(products ProductFinder, rates RateFinder, fta *FTAClassifier, currency ExchangeRater, history HistoryGenerator, concurrency int) *ComparisonService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ComparisonService{
		products:    products,
		rates:       rates,
		fta:         fta,
		currency:    currency,
		history:     history,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// CompareMultipleCountries prices the shipment for every destination that has
// rate data, skipping the rest, and ranks the results by ascending total cost.
// Ties keep their input order.
func (s *ComparisonService) CompareMultipleCountries(ctx context.Context, req CompareRequest) (result *models.ComparisonResult, err error) {
	defer func() { metrics.RecordOperation("compare", err) }()

	product := strings.TrimSpace(req.Product)
	origin := strings.TrimSpace(req.ExportingFrom)
	currency := normalizeCurrency(req.Currency)
	destinations := cleanCountries(req.Destinations)

	switch {
	case product == "":
		return nil, utils.NewValidationError("product", "product is required")
	case origin == "":
		return nil, utils.NewValidationError("exportingFrom", "origin country is required")
	case len(destinations) == 0:
		return nil, utils.NewValidationError("destinations", "at least one destination country is required")
	case req.Quantity <= 0:
		return nil, utils.NewValidationError("quantity", "quantity must be greater than 0")
	}
	customCost, err := parseCustomCost(req.CustomCost)
	if err != nil {
		return nil, err
	}

	p, err := resolveProduct(ctx, s.products, product)
	if err != nil {
		return nil, err
	}
	unitCost := p.Cost()
	if customCost != nil {
		unitCost = *customCost
	}
	productCostUSD := unitCost.Mul(decimal.NewFromFloat(req.Quantity)).InexactFloat64()

	slots := make([]*models.CountryComparison, len(destinations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, dest := range destinations {
		g.Go(func() error {
			row, err := s.rates.FindByCountryPair(gctx, dest, origin)
			if err != nil {
				return err
			}
			if row == nil {
				return nil
			}
			applied := selectRate(s.fta, dest, origin, row)
			tariffUSD := productCostUSD * applied.rate / 100

			fx := s.currency.GetExchangeRate(gctx, currency)
			productCost := productCostUSD * fx
			tariffAmount := tariffUSD * fx
			slots[i] = &models.CountryComparison{
				Country:      dest,
				TariffRate:   applied.rate,
				TariffType:   applied.label,
				ProductCost:  productCost,
				TariffAmount: tariffAmount,
				TotalCost:    productCost + tariffAmount,
				HasFTA:       applied.hasFTA,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comparisons := make([]models.CountryComparison, 0, len(slots))
	var skipped []string
	for i, c := range slots {
		if c == nil {
			skipped = append(skipped, destinations[i])
			continue
		}
		comparisons = append(comparisons, *c)
	}
	if len(comparisons) == 0 {
		return nil, utils.NewNotFoundError("tariff_rate", "no tariff data for selected countries")
	}
	if len(skipped) > 0 {
		log.Debug().Str("product", product).Str("origin", origin).Strs("skipped", skipped).
			Msg("destinations without tariff data skipped")
	}

	rankComparisons(comparisons)
	metrics.ComparisonDestinations.Observe(float64(len(comparisons)))

	return &models.ComparisonResult{
		Product:       p.Name,
		ExportingFrom: origin,
		Quantity:      req.Quantity,
		Unit:          p.Unit,
		Currency:      currency,
		Comparisons:   comparisons,
		Skipped:       skipped,
		ChartData:     chartData(comparisons),
	}, nil
}

// rankComparisons sorts ascending by total cost and assigns 1-based ranks.
func rankComparisons(comparisons []models.CountryComparison) {
	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].TotalCost < comparisons[j].TotalCost
	})
	for i := range comparisons {
		comparisons[i].Rank = i + 1
	}
}

func chartData(comparisons []models.CountryComparison) models.ChartData {
	chart := models.ChartData{
		Countries:     make([]string, 0, len(comparisons)),
		TariffRates:   make([]float64, 0, len(comparisons)),
		TariffAmounts: make([]float64, 0, len(comparisons)),
		TotalCosts:    make([]float64, 0, len(comparisons)),
		TariffTypes:   make([]string, 0, len(comparisons)),
	}
	for _, c := range comparisons {
		chart.Countries = append(chart.Countries, c.Country)
		chart.TariffRates = append(chart.TariffRates, c.TariffRate)
		chart.TariffAmounts = append(chart.TariffAmounts, c.TariffAmount)
		chart.TotalCosts = append(chart.TotalCosts, c.TotalCost)
		chart.TariffTypes = append(chart.TariffTypes, c.TariffType)
	}
	return chart
}

// GetTariffHistory returns a monthly rate series for one route.
func (s *ComparisonService) GetTariffHistory(ctx context.Context, req HistoryRequest) (result *models.TariffHistory, err error) {
	defer func() { metrics.RecordOperation("history", err) }()

	product := strings.TrimSpace(req.Product)
	origin := strings.TrimSpace(req.ExportingFrom)
	dest := strings.TrimSpace(req.ImportingTo)
	switch {
	case product == "":
		return nil, utils.NewValidationError("product", "product is required")
	case origin == "":
		return nil, utils.NewValidationError("exportingFrom", "origin country is required")
	case dest == "":
		return nil, utils.NewValidationError("importingTo", "destination country is required")
	}
	months, err := monthRange(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return nil, err
	}

	p, err := resolveProduct(ctx, s.products, product)
	if err != nil {
		return nil, err
	}
	row, err := s.rates.FindByCountryPair(ctx, dest, origin)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, utils.NewNotFoundError("tariff_rate", "no tariff data found for %s importing from %s", dest, origin)
	}

	return s.series(p.Name, origin, dest, row, months), nil
}

// GetTariffTrends returns monthly rate series for every destination with
// rate data.
func (s *ComparisonService) GetTariffTrends(ctx context.Context, req TrendsRequest) (result *models.TariffTrends, err error) {
	defer func() { metrics.RecordOperation("trends", err) }()

	product := strings.TrimSpace(req.Product)
	origin := strings.TrimSpace(req.ExportingFrom)
	destinations := cleanCountries(req.Destinations)
	switch {
	case product == "":
		return nil, utils.NewValidationError("product", "product is required")
	case origin == "":
		return nil, utils.NewValidationError("exportingFrom", "origin country is required")
	case len(destinations) == 0:
		return nil, utils.NewValidationError("destinations", "at least one destination country is required")
	}
	months, err := monthRange(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return nil, err
	}

	p, err := resolveProduct(ctx, s.products, product)
	if err != nil {
		return nil, err
	}

	trends := &models.TariffTrends{
		Product:       p.Name,
		ExportingFrom: origin,
		StartMonth:    months[0].Format(monthLayout),
		EndMonth:      months[len(months)-1].Format(monthLayout),
	}
	for _, dest := range destinations {
		row, err := s.rates.FindByCountryPair(ctx, dest, origin)
		if err != nil {
			return nil, err
		}
		if row == nil {
			continue
		}
		trends.Series = append(trends.Series, *s.series(p.Name, origin, dest, row, months))
	}
	if len(trends.Series) == 0 {
		return nil, utils.NewNotFoundError("tariff_rate", "no tariff data for selected countries")
	}
	return trends, nil
}

func (s *ComparisonService) series(product, origin, dest string, row *models.TariffRate, months []time.Time) *models.TariffHistory {
	applied := selectRate(s.fta, dest, origin, row)
	return &models.TariffHistory{
		Product:       product,
		ExportingFrom: origin,
		ImportingTo:   dest,
		TariffType:    applied.label,
		CurrentRate:   applied.rate,
		Points:        s.history.Generate(applied.rate, months),
	}
}

// cleanCountries trims names and drops blanks, keeping input order.
func cleanCountries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
