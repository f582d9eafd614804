package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_tariff/internal/models"
)

const tariffRateColumns = `importing_country, exporting_country, ahs_rate, mfn_rate, is_override,
        product_name, rate_type, effective_date, expiration_date, updated_at`

// TariffRateRepository is the rate store accessor over tariff_rates, keyed by
// (importing country, exporting country).
type TariffRateRepository struct {
	db *sqlx.DB
}

// NewTariffRateRepository creates a new TariffRateRepository.
func NewTariffRateRepository(db *sqlx.DB) *TariffRateRepository {
	return &TariffRateRepository{db: db}
}

// FindByCountryPair returns the rate row for the pair, or nil when absent.
func (r *TariffRateRepository) FindByCountryPair(ctx context.Context, importing, exporting string) (*models.TariffRate, error) {
	const q = `SELECT ` + tariffRateColumns + ` FROM tariff_rates
        WHERE importing_country = $1 AND exporting_country = $2`

	var rate models.TariffRate
	if err := r.db.GetContext(ctx, &rate, q, importing, exporting); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find tariff rate %s<-%s: %w", importing, exporting, err)
	}
	return &rate, nil
}

// List returns every rate row ordered by country pair.
func (r *TariffRateRepository) List(ctx context.Context) ([]models.TariffRate, error) {
	const q = `SELECT ` + tariffRateColumns + ` FROM tariff_rates
        ORDER BY importing_country, exporting_country`

	var rates []models.TariffRate
	if err := r.db.SelectContext(ctx, &rates, q); err != nil {
		return nil, fmt.Errorf("list tariff rates: %w", err)
	}
	return rates, nil
}

// Save inserts or replaces the percentage fields of a rate row. Override
// metadata on an existing row is untouched.
func (r *TariffRateRepository) Save(ctx context.Context, rate *models.TariffRate) error {
	const q = `
        INSERT INTO tariff_rates (importing_country, exporting_country, ahs_rate, mfn_rate)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (importing_country, exporting_country) DO UPDATE SET
            ahs_rate = EXCLUDED.ahs_rate,
            mfn_rate = EXCLUDED.mfn_rate,
            updated_at = NOW()
        RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		rate.ImportingCountry,
		rate.ExportingCountry,
		rate.AHSRate,
		rate.MFNRate,
	).Scan(&rate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save tariff rate %s<-%s: %w", rate.ImportingCountry, rate.ExportingCountry, err)
	}
	return nil
}

// Delete removes the rate row for the pair and reports whether it existed.
func (r *TariffRateRepository) Delete(ctx context.Context, importing, exporting string) (bool, error) {
	const q = `DELETE FROM tariff_rates WHERE importing_country = $1 AND exporting_country = $2`

	res, err := r.db.ExecContext(ctx, q, importing, exporting)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
