package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_tariff/internal/models"
)

func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var lockCols = []string{"is_override", "rate_type"}

var rateCols = []string{
	"importing_country", "exporting_country", "ahs_rate", "mfn_rate", "is_override",
	"product_name", "rate_type", "effective_date", "expiration_date", "updated_at",
}

func TestProductRepository_FindByName(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectPrepare(`SELECT .* FROM products WHERE LOWER\(name\) = LOWER\(\$1\) ORDER BY id`).
		ExpectQuery().
		WithArgs("Widget").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "brand", "unit_cost", "unit", "created_at", "updated_at"}).
			AddRow(1, "Widget", "Acme", "10.00", "piece", now, now).
			AddRow(2, "Widget", "Other", nil, "piece", now, now))

	products, err := repo.FindByName(context.Background(), "Widget")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Acme", products[0].Brand)
	assert.Equal(t, "10", products[0].Cost().String())
	assert.False(t, products[1].UnitCost.Valid)
	assert.True(t, products[1].Cost().IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDMissing(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
		WithArgs(7).
		WillReturnError(sql.ErrNoRows)

	p, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepository_GetByID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "brand", "unit_cost", "unit", "created_at", "updated_at"}).
			AddRow(3, "Widget", "Acme", "4.25", "kg", now, now))

	p, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "4.25", p.Cost().String())
	assert.Equal(t, "kg", p.Unit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreatePopulatesID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO products \(name, brand, unit_cost, unit\)`).
		WithArgs("Widget", "Acme", sqlmock.AnyArg(), "piece").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	p := &models.Product{Name: "Widget", Brand: "Acme", Unit: "piece"}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, 11, p.ID)
	assert.Equal(t, now, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffRateRepository_ListOrdersByPair(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTariffRateRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM tariff_rates\s+ORDER BY importing_country, exporting_country`).
		WillReturnRows(sqlmock.NewRows(rateCols).
			AddRow("China", "Singapore", 2.0, 8.0, false, nil, nil, nil, nil, now).
			AddRow("USA", "China", nil, 15.0, true, "Widget", "MFN", nil, nil, now))

	rates, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Nil(t, rates[1].AHSRate)
	assert.True(t, rates[1].IsOverride)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffRateRepository_SaveUpserts(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTariffRateRepository(db)
	now := time.Now()
	ahs := 2.0

	mock.ExpectQuery(`INSERT INTO tariff_rates .* ON CONFLICT \(importing_country, exporting_country\) DO UPDATE SET`).
		WithArgs("China", "Singapore", 2.0, nil).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	rate := &models.TariffRate{ImportingCountry: "China", ExportingCountry: "Singapore", AHSRate: &ahs}
	require.NoError(t, repo.Save(context.Background(), rate))
	assert.Equal(t, now, rate.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffRateRepository_FindByCountryPair(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTariffRateRepository(db)

	mock.ExpectQuery(`SELECT .* FROM tariff_rates\s+WHERE importing_country = \$1 AND exporting_country = \$2`).
		WithArgs("China", "Singapore").
		WillReturnRows(sqlmock.NewRows(rateCols).
			AddRow("China", "Singapore", 2.0, 8.0, false, nil, nil, nil, nil, time.Now()))

	rate, err := repo.FindByCountryPair(context.Background(), "China", "Singapore")
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 2.0, rate.Preferential())
	assert.Equal(t, 8.0, rate.Standard())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTariffRateRepository_FindByCountryPairMissing(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTariffRateRepository(db)

	mock.ExpectQuery(`SELECT .* FROM tariff_rates`).
		WithArgs("Mars", "Venus").
		WillReturnRows(sqlmock.NewRows(rateCols))

	rate, err := repo.FindByCountryPair(context.Background(), "Mars", "Venus")
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestTariffRateRepository_Delete(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewTariffRateRepository(db)

	mock.ExpectExec(`DELETE FROM tariff_rates`).
		WithArgs("China", "Singapore").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(context.Background(), "China", "Singapore")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdminOverrideRepository_PutInsertsNewPair(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_override, rate_type FROM tariff_rates\s+WHERE importing_country = \$1 AND exporting_country = \$2 FOR UPDATE`).
		WithArgs("China", "Singapore").
		WillReturnRows(sqlmock.NewRows(lockCols))
	mock.ExpectExec(`INSERT INTO tariff_rates\s+\(importing_country, exporting_country, mfn_rate, is_override`).
		WithArgs("China", "Singapore", 12.5, "Widget", "MFN", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Put(context.Background(), models.TariffDefinition{
		ID:            "China_Singapore",
		Product:       "Widget",
		ImportingTo:   "China",
		ExportingFrom: "Singapore",
		Type:          models.RateTypeMFN,
		Rate:          12.5,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverrideRepository_PutMergesIntoExistingRow(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("China", "Singapore").
		WillReturnRows(sqlmock.NewRows(lockCols).AddRow(false, nil))
	mock.ExpectExec(`UPDATE tariff_rates SET ahs_rate = \$3, is_override = true`).
		WithArgs("China", "Singapore", 1.5, nil, "AHS", "2024-01-01", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Put(context.Background(), models.TariffDefinition{
		ID:            "China_Singapore",
		ImportingTo:   "China",
		ExportingFrom: "Singapore",
		Type:          models.RateTypeAHS,
		Rate:          1.5,
		EffectiveDate: "2024-01-01",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverrideRepository_PutTypeChangeClearsPreviousRate(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("China", "Singapore").
		WillReturnRows(sqlmock.NewRows(lockCols).AddRow(true, "AHS"))
	mock.ExpectExec(`UPDATE tariff_rates SET mfn_rate = \$3, ahs_rate = NULL, is_override = true`).
		WithArgs("China", "Singapore", 7.0, "Widget", "MFN", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Put(context.Background(), models.TariffDefinition{
		ID:            "China_Singapore",
		Product:       "Widget",
		ImportingTo:   "China",
		ExportingFrom: "Singapore",
		Type:          models.RateTypeMFN,
		Rate:          7.0,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverrideRepository_PutSameTypeKeepsOtherRate(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("China", "Singapore").
		WillReturnRows(sqlmock.NewRows(lockCols).AddRow(true, "MFN"))
	mock.ExpectExec(`UPDATE tariff_rates SET mfn_rate = \$3, is_override = true`).
		WithArgs("China", "Singapore", 9.0, nil, "MFN", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Put(context.Background(), models.TariffDefinition{
		ID:            "China_Singapore",
		ImportingTo:   "China",
		ExportingFrom: "Singapore",
		Type:          models.RateTypeMFN,
		Rate:          9.0,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverrideRepository_DeleteRemovesWholeRow(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	mock.ExpectExec(`DELETE FROM tariff_rates\s+WHERE importing_country = \$1 AND exporting_country = \$2 AND is_override = true`).
		WithArgs("China", "Singapore").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM tariff_rates`).
		WithArgs("China", "Singapore").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), "China_Singapore")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), "China_Singapore")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverrideRepository_PutRollsBackOnFailure(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("China", "Singapore").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Put(context.Background(), models.TariffDefinition{
		ImportingTo:   "China",
		ExportingFrom: "Singapore",
		Type:          models.RateTypeAHS,
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverrideRepository_GetProjectsRow(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)
	rateType := "MFN"
	product := "Widget"

	mock.ExpectQuery(`SELECT .* FROM tariff_rates\s+WHERE importing_country = \$1 AND exporting_country = \$2 AND is_override = true`).
		WithArgs("USA", "China").
		WillReturnRows(sqlmock.NewRows(rateCols).
			AddRow("USA", "China", 3.0, 15.0, true, product, rateType, nil, nil, time.Now()))

	def, err := repo.Get(context.Background(), "USA_China")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "USA_China", def.ID)
	assert.Equal(t, "USA", def.ImportingTo)
	assert.Equal(t, "China", def.ExportingFrom)
	assert.Equal(t, "MFN", def.Type)
	assert.Equal(t, 15.0, def.Rate)
	assert.Equal(t, "Widget", def.Product)
}

func TestAdminOverrideRepository_MalformedID(t *testing.T) {
	db, _ := setupTestDB(t)
	repo := NewAdminOverrideRepository(db)

	_, err := repo.Get(context.Background(), "nonsense")
	assert.ErrorIs(t, err, models.ErrMalformedOverrideID)

	_, err = repo.Delete(context.Background(), "a_b_c")
	assert.ErrorIs(t, err, models.ErrMalformedOverrideID)
}

func TestToDefinition_InfersTypeWithoutLabel(t *testing.T) {
	ahs := 4.0
	def := toDefinition(&models.TariffRate{ImportingCountry: "Japan", ExportingCountry: "Vietnam", AHSRate: &ahs})
	assert.Equal(t, models.RateTypeAHS, def.Type)
	assert.Equal(t, 4.0, def.Rate)

	mfn := 9.0
	def = toDefinition(&models.TariffRate{ImportingCountry: "USA", ExportingCountry: "Vietnam", MFNRate: &mfn})
	assert.Equal(t, models.RateTypeMFN, def.Type)
	assert.Equal(t, 9.0, def.Rate)
}
