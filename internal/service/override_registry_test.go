package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// memoryOverrideStore is an ordered in-memory OverrideStore.
type memoryOverrideStore struct {
	mu   sync.Mutex
	defs []models.TariffDefinition
}

func (m *memoryOverrideStore) List(ctx context.Context) ([]models.TariffDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TariffDefinition(nil), m.defs...), nil
}

func (m *memoryOverrideStore) Get(ctx context.Context, id string) (*models.TariffDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.defs {
		if m.defs[i].ID == id {
			def := m.defs[i]
			return &def, nil
		}
	}
	return nil, nil
}

func (m *memoryOverrideStore) Put(ctx context.Context, def models.TariffDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.defs {
		if m.defs[i].ID == def.ID {
			m.defs[i] = def
			return nil
		}
	}
	m.defs = append(m.defs, def)
	return nil
}

func (m *memoryOverrideStore) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.defs {
		if m.defs[i].ID == id {
			m.defs = append(m.defs[:i], m.defs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryOverrideStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs = nil
	return nil
}

func TestSessionRegistry_SaveGeneratesUUID(t *testing.T) {
	reg := NewSessionOverrideRegistry(&memoryOverrideStore{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		saved, err := reg.Save(ctx, models.TariffDefinition{Product: "Widget", ExportingFrom: "Singapore", ImportingTo: "China", Type: "Custom", Rate: 3})
		require.NoError(t, err)
		_, perr := uuid.Parse(saved.ID)
		assert.NoError(t, perr, "id %q should be a UUID", saved.ID)
	}

	defs, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, 5)
}

func TestSessionRegistry_SaveWithExistingIDReplaces(t *testing.T) {
	reg := NewSessionOverrideRegistry(&memoryOverrideStore{})
	ctx := context.Background()

	first, err := reg.Save(ctx, models.TariffDefinition{Product: "Widget", Rate: 3})
	require.NoError(t, err)
	_, err = reg.Save(ctx, models.TariffDefinition{Product: "Gadget", Rate: 4})
	require.NoError(t, err)

	_, err = reg.Save(ctx, models.TariffDefinition{ID: first.ID, Product: "Widget", Rate: 7})
	require.NoError(t, err)

	defs, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, first.ID, defs[0].ID)
	assert.Equal(t, 7.0, defs[0].Rate)
}

func TestSessionRegistry_ListEmpty(t *testing.T) {
	reg := NewSessionOverrideRegistry(&memoryOverrideStore{})

	defs, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, defs)
	assert.Empty(t, defs)
}

func TestSessionRegistry_UpdateKeepsID(t *testing.T) {
	reg := NewSessionOverrideRegistry(&memoryOverrideStore{})
	ctx := context.Background()

	saved, err := reg.Save(ctx, models.TariffDefinition{Product: "Widget", Type: "Custom", Rate: 3})
	require.NoError(t, err)

	updated, err := reg.Update(ctx, saved.ID, models.TariffDefinition{ID: "ignored", Product: "Gizmo", Type: "Quota", Rate: 9})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	got, err := reg.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gizmo", got.Product)
	assert.Equal(t, "Quota", got.Type)
	assert.Equal(t, 9.0, got.Rate)
}

func TestSessionRegistry_NotFound(t *testing.T) {
	reg := NewSessionOverrideRegistry(&memoryOverrideStore{})
	ctx := context.Background()

	_, err := reg.GetByID(ctx, "missing")
	assert.True(t, utils.IsNotFound(err))

	_, err = reg.Update(ctx, "missing", models.TariffDefinition{})
	assert.True(t, utils.IsNotFound(err))

	err = reg.Delete(ctx, "missing")
	assert.True(t, utils.IsNotFound(err))

	_, err = reg.GetByID(ctx, " ")
	assert.True(t, utils.IsValidation(err))
}

func TestSessionRegistry_DeleteAndClear(t *testing.T) {
	reg := NewSessionOverrideRegistry(&memoryOverrideStore{})
	ctx := context.Background()

	a, _ := reg.Save(ctx, models.TariffDefinition{Product: "A"})
	_, _ = reg.Save(ctx, models.TariffDefinition{Product: "B"})

	require.NoError(t, reg.Delete(ctx, a.ID))
	defs, _ := reg.List(ctx)
	assert.Len(t, defs, 1)

	require.NoError(t, reg.Clear(ctx))
	defs, _ = reg.List(ctx)
	assert.Empty(t, defs)
}

func TestAdminRegistry_SaveDerivesCompositeID(t *testing.T) {
	reg := NewAdminOverrideRegistry(&memoryOverrideStore{})

	saved, err := reg.Save(context.Background(), models.TariffDefinition{
		ID:            "whatever",
		Product:       "Widget",
		ImportingTo:   "China",
		ExportingFrom: "Singapore",
		Type:          models.RateTypeAHS,
		Rate:          1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "China_Singapore", saved.ID)
}

func TestAdminRegistry_Validation(t *testing.T) {
	reg := NewAdminOverrideRegistry(&memoryOverrideStore{})
	valid := models.TariffDefinition{ImportingTo: "China", ExportingFrom: "Singapore", Type: models.RateTypeMFN, Rate: 5}

	tests := []struct {
		name  string
		mut   func(d *models.TariffDefinition)
		field string
	}{
		{"missing destination", func(d *models.TariffDefinition) { d.ImportingTo = "" }, "importingTo"},
		{"missing origin", func(d *models.TariffDefinition) { d.ExportingFrom = "  " }, "exportingFrom"},
		{"bad type", func(d *models.TariffDefinition) { d.Type = "VAT" }, "type"},
		{"blank type", func(d *models.TariffDefinition) { d.Type = "" }, "type"},
		{"negative rate", func(d *models.TariffDefinition) { d.Rate = -0.1 }, "rate"},
		{"underscore in country", func(d *models.TariffDefinition) { d.ImportingTo = "New_Zealand" }, "id"},
		{"long destination", func(d *models.TariffDefinition) { d.ImportingTo = strings.Repeat("x", 101) }, "importingTo"},
		{"long product", func(d *models.TariffDefinition) { d.Product = strings.Repeat("x", 256) }, "product"},
		{"long effective date", func(d *models.TariffDefinition) { d.EffectiveDate = strings.Repeat("x", 65) }, "effectiveDate"},
		{"long expiration date", func(d *models.TariffDefinition) { d.ExpirationDate = strings.Repeat("x", 65) }, "expirationDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid
			tt.mut(&def)
			_, err := reg.Save(context.Background(), def)
			var verr *utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}

	_, err := reg.Save(context.Background(), valid)
	assert.NoError(t, err)
}

func TestAdminRegistry_CompositeIDParsing(t *testing.T) {
	store := &memoryOverrideStore{}
	reg := NewAdminOverrideRegistry(store)
	ctx := context.Background()

	_, err := reg.Save(ctx, models.TariffDefinition{ImportingTo: "A", ExportingFrom: "B", Type: models.RateTypeMFN, Rate: 1})
	require.NoError(t, err)

	updated, err := reg.Update(ctx, "A_B", models.TariffDefinition{ImportingTo: "X", ExportingFrom: "Y", Type: models.RateTypeAHS, Rate: 2})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.ImportingTo)
	assert.Equal(t, "B", updated.ExportingFrom)
	assert.Equal(t, "A_B", updated.ID)

	require.NoError(t, reg.Delete(ctx, "A_B"))

	for _, bad := range []string{"AB", "A_", "_B", "A_B_C"} {
		_, err = reg.Update(ctx, bad, models.TariffDefinition{Type: models.RateTypeAHS})
		assert.True(t, utils.IsValidation(err), "update %q", bad)
		assert.True(t, utils.IsValidation(reg.Delete(ctx, bad)), "delete %q", bad)
		_, err = reg.GetByID(ctx, bad)
		assert.True(t, utils.IsValidation(err), "get %q", bad)
	}

	_, err = reg.Update(ctx, "C_D", models.TariffDefinition{Type: models.RateTypeAHS, Rate: 1})
	assert.True(t, utils.IsNotFound(err))
}
