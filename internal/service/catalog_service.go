package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_tariff/internal/metrics"
	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

const defaultProductUnit = "piece"

// RateTable is the writable side of the global rate store.
type RateTable interface {
	List(ctx context.Context) ([]models.TariffRate, error)
	Save(ctx context.Context, rate *models.TariffRate) error
	Delete(ctx context.Context, importing, exporting string) (bool, error)
}

// ProductCatalog is the writable side of the product store. GetByID returns
// nil when the id is absent.
type ProductCatalog interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int) (*models.Product, error)
}

// RateInput is an admin write to the global rate table. A nil rate is
// stored as NULL and reads back as 0.
type RateInput struct {
	ImportingCountry string   `json:"importingCountry" validate:"required,max=100"`
	ExportingCountry string   `json:"exportingCountry" validate:"required,max=100"`
	AHSRate          *float64 `json:"ahsRate" validate:"omitempty,gte=0"`
	MFNRate          *float64 `json:"mfnRate" validate:"omitempty,gte=0"`
}

// ProductInput is an admin write to the product catalog. UnitCost is a
// decimal string in USD; blank stores NULL.
type ProductInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Brand    string `json:"brand" validate:"max=255"`
	UnitCost string `json:"unitCost"`
	Unit     string `json:"unit" validate:"max=50"`
}

// CatalogService maintains the reference data the calculators read: the
// global rate table and the product catalog.
type CatalogService struct {
	rates    RateTable
	products ProductCatalog
	validate *validator.Validate
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(rates RateTable, products ProductCatalog) *CatalogService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &CatalogService{rates: rates, products: products, validate: v}
}

// ListRates returns every rate row ordered by country pair; empty when none.
func (s *CatalogService) ListRates(ctx context.Context) ([]models.TariffRate, error) {
	rates, err := s.rates.List(ctx)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = []models.TariffRate{}
	}
	return rates, nil
}

// SaveRate inserts or replaces both percentages of a country pair. Override
// metadata already on the row is left as is.
func (s *CatalogService) SaveRate(ctx context.Context, in RateInput) (rate *models.TariffRate, err error) {
	defer func() { metrics.RecordOperation("rate_save", err) }()

	in.ImportingCountry = strings.TrimSpace(in.ImportingCountry)
	in.ExportingCountry = strings.TrimSpace(in.ExportingCountry)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.AHSRate == nil && in.MFNRate == nil {
		return nil, utils.NewValidationError("ahsRate", "at least one of ahsRate or mfnRate is required")
	}

	rate = &models.TariffRate{
		ImportingCountry: in.ImportingCountry,
		ExportingCountry: in.ExportingCountry,
		AHSRate:          in.AHSRate,
		MFNRate:          in.MFNRate,
	}
	if err := s.rates.Save(ctx, rate); err != nil {
		return nil, err
	}
	log.Info().Str("importing", rate.ImportingCountry).Str("exporting", rate.ExportingCountry).
		Msg("tariff rate saved")
	return rate, nil
}

// DeleteRate removes the row for a country pair or returns a NotFoundError.
func (s *CatalogService) DeleteRate(ctx context.Context, importing, exporting string) error {
	importing = strings.TrimSpace(importing)
	exporting = strings.TrimSpace(exporting)
	switch {
	case importing == "":
		return utils.NewValidationError("importingCountry", "importing country is required")
	case exporting == "":
		return utils.NewValidationError("exportingCountry", "exporting country is required")
	}

	ok, err := s.rates.Delete(ctx, importing, exporting)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NewNotFoundError("tariff_rate", "no tariff data found for %s importing from %s", importing, exporting)
	}
	log.Info().Str("importing", importing).Str("exporting", exporting).Msg("tariff rate deleted")
	return nil
}

// CreateProduct adds a catalog entry. A blank unit defaults to "piece".
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (product *models.Product, err error) {
	defer func() { metrics.RecordOperation("product_create", err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Unit = strings.TrimSpace(in.Unit)
	if err := s.check(in); err != nil {
		return nil, err
	}

	product = &models.Product{Name: in.Name, Brand: in.Brand, Unit: in.Unit}
	if product.Unit == "" {
		product.Unit = defaultProductUnit
	}
	if raw := strings.TrimSpace(in.UnitCost); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, utils.NewValidationError("unitCost", "invalid unit cost format")
		}
		if cost.IsNegative() {
			return nil, utils.NewValidationError("unitCost", "unit cost must not be negative")
		}
		product.UnitCost = decimal.NewNullDecimal(cost)
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	log.Info().Int("id", product.ID).Str("name", product.Name).Msg("product created")
	return product, nil
}

// GetProduct returns the product with id or a NotFoundError.
func (s *CatalogService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, utils.NewValidationError("id", "product id must be a positive integer")
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.NewNotFoundError("product", "product %d not found", id)
	}
	return p, nil
}

// check runs struct validation and reports the first failing field by its
// JSON name.
func (s *CatalogService) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return utils.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return utils.NewValidationError(fe.Field(), msg)
}
