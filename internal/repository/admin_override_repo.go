package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_tariff/internal/models"
)

// AdminOverrideRepository persists admin-scoped tariff overrides in the
// tariff_rates table. An override's identity is its country pair, encoded as
// "{importingTo}_{exportingFrom}". Only rows flagged is_override belong to the
// admin scope; saving onto an existing global row merges into it and flags it.
type AdminOverrideRepository struct {
	db *sqlx.DB
}

// NewAdminOverrideRepository creates a new AdminOverrideRepository.
func NewAdminOverrideRepository(db *sqlx.DB) *AdminOverrideRepository {
	return &AdminOverrideRepository{db: db}
}

// List returns every admin override ordered by country pair.
func (r *AdminOverrideRepository) List(ctx context.Context) ([]models.TariffDefinition, error) {
	const q = `SELECT ` + tariffRateColumns + ` FROM tariff_rates
        WHERE is_override = true
        ORDER BY importing_country, exporting_country`

	var rows []models.TariffRate
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list admin overrides: %w", err)
	}

	defs := make([]models.TariffDefinition, 0, len(rows))
	for i := range rows {
		defs = append(defs, toDefinition(&rows[i]))
	}
	return defs, nil
}

// Get returns the override identified by id, or nil when absent.
func (r *AdminOverrideRepository) Get(ctx context.Context, id string) (*models.TariffDefinition, error) {
	importing, exporting, err := models.ParseAdminOverrideID(id)
	if err != nil {
		return nil, err
	}

	const q = `SELECT ` + tariffRateColumns + ` FROM tariff_rates
        WHERE importing_country = $1 AND exporting_country = $2 AND is_override = true`

	var row models.TariffRate
	if err := r.db.GetContext(ctx, &row, q, importing, exporting); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get admin override %s: %w", id, err)
	}
	def := toDefinition(&row)
	return &def, nil
}

// Put writes def onto its country pair in a single transaction: the row is
// locked, the rate merged into the column named by def.Type, and the override
// metadata replaced. A missing row is inserted. When an existing override
// changes type, the column of its previous type is cleared so the stale rate
// stops applying; a global row being flagged keeps both of its rates.
func (r *AdminOverrideRepository) Put(ctx context.Context, def models.TariffDefinition) (err error) {
	column, err := rateColumn(def.Type)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admin override tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQ = `SELECT is_override, rate_type FROM tariff_rates
        WHERE importing_country = $1 AND exporting_country = $2 FOR UPDATE`

	var (
		isOverride bool
		prevType   sql.NullString
	)
	switch scanErr := tx.QueryRowxContext(ctx, lockQ, def.ImportingTo, def.ExportingFrom).Scan(&isOverride, &prevType); {
	case scanErr == nil:
		set := column + " = $3"
		if isOverride && prevType.Valid && prevType.String != def.Type {
			if stale, colErr := rateColumn(prevType.String); colErr == nil && stale != column {
				set += ", " + stale + " = NULL"
			}
		}
		updateQ := fmt.Sprintf(`UPDATE tariff_rates SET %s, is_override = true,
            product_name = $4, rate_type = $5, effective_date = $6, expiration_date = $7, updated_at = NOW()
            WHERE importing_country = $1 AND exporting_country = $2`, set)
		_, err = tx.ExecContext(ctx, updateQ, def.ImportingTo, def.ExportingFrom, def.Rate,
			nullable(def.Product), def.Type, nullable(def.EffectiveDate), nullable(def.ExpirationDate))
	case errors.Is(scanErr, sql.ErrNoRows):
		insertQ := fmt.Sprintf(`INSERT INTO tariff_rates
            (importing_country, exporting_country, %s, is_override, product_name, rate_type, effective_date, expiration_date)
            VALUES ($1, $2, $3, true, $4, $5, $6, $7)`, column)
		_, err = tx.ExecContext(ctx, insertQ, def.ImportingTo, def.ExportingFrom, def.Rate,
			nullable(def.Product), def.Type, nullable(def.EffectiveDate), nullable(def.ExpirationDate))
	default:
		err = scanErr
	}
	if err != nil {
		return fmt.Errorf("write admin override %s: %w", def.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit admin override %s: %w", def.ID, err)
	}
	return nil
}

// Delete removes the override row and reports whether it existed. The whole
// row goes, including any global rates an override was merged into.
func (r *AdminOverrideRepository) Delete(ctx context.Context, id string) (bool, error) {
	importing, exporting, err := models.ParseAdminOverrideID(id)
	if err != nil {
		return false, err
	}

	const q = `DELETE FROM tariff_rates
        WHERE importing_country = $1 AND exporting_country = $2 AND is_override = true`

	res, err := r.db.ExecContext(ctx, q, importing, exporting)
	if err != nil {
		return false, fmt.Errorf("delete admin override %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every admin override row.
func (r *AdminOverrideRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tariff_rates WHERE is_override = true`)
	return err
}

func rateColumn(rateType string) (string, error) {
	switch rateType {
	case models.RateTypeAHS:
		return "ahs_rate", nil
	case models.RateTypeMFN:
		return "mfn_rate", nil
	default:
		return "", fmt.Errorf("unsupported rate type %q", rateType)
	}
}

// toDefinition projects a rate row onto the override shape. The rate is read
// from the column named by the stored type label; rows without a label report
// AHS when a preferential rate exists, MFN otherwise.
func toDefinition(row *models.TariffRate) models.TariffDefinition {
	def := models.TariffDefinition{
		ID:            models.AdminOverrideID(row.ImportingCountry, row.ExportingCountry),
		ImportingTo:   row.ImportingCountry,
		ExportingFrom: row.ExportingCountry,
	}
	if row.ProductName != nil {
		def.Product = *row.ProductName
	}
	if row.EffectiveDate != nil {
		def.EffectiveDate = *row.EffectiveDate
	}
	if row.ExpirationDate != nil {
		def.ExpirationDate = *row.ExpirationDate
	}

	switch {
	case row.RateType != nil:
		def.Type = *row.RateType
	case row.AHSRate != nil:
		def.Type = models.RateTypeAHS
	default:
		def.Type = models.RateTypeMFN
	}

	if def.Type == models.RateTypeAHS {
		def.Rate = row.Preferential()
	} else {
		def.Rate = row.Standard()
	}
	return def
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
