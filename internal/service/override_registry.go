package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// OverrideStore is the storage backend of an override scope. Get returns
// nil when the id is absent; Put replaces an entry with the same id in place
// or appends it.
type OverrideStore interface {
	List(ctx context.Context) ([]models.TariffDefinition, error)
	Get(ctx context.Context, id string) (*models.TariffDefinition, error)
	Put(ctx context.Context, def models.TariffDefinition) error
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
}

// IdentityPolicy controls how a scope assigns, checks and validates override
// identities.
type IdentityPolicy interface {
	// Assign populates def.ID before a save.
	Assign(def *models.TariffDefinition) error
	// Bind checks id and applies it to def before an update.
	Bind(id string, def *models.TariffDefinition) error
	// Check rejects malformed ids before a lookup or delete.
	Check(id string) error
	// Validate rejects definitions the scope cannot store.
	Validate(def *models.TariffDefinition) error
}

// OverrideRegistry manages simulated tariff definitions for one scope.
type OverrideRegistry struct {
	store  OverrideStore
	policy IdentityPolicy
}

// NewOverrideRegistry constructs a registry over store with the given policy.
func NewOverrideRegistry(store OverrideStore, policy IdentityPolicy) *OverrideRegistry {
	return &OverrideRegistry{store: store, policy: policy}
}

// NewSessionOverrideRegistry builds a registry for a caller session: ids are
// random UUIDs and any definition is accepted.
func NewSessionOverrideRegistry(store OverrideStore) *OverrideRegistry {
	return NewOverrideRegistry(store, SessionIdentity{})
}

// NewAdminOverrideRegistry builds a registry for the persistent admin scope:
// ids are "{importingTo}_{exportingFrom}" and definitions are validated.
func NewAdminOverrideRegistry(store OverrideStore) *OverrideRegistry {
	return NewOverrideRegistry(store, NewAdminIdentity())
}

// Save stores def, generating an id when the scope requires one, and returns
// the definition as stored.
func (r *OverrideRegistry) Save(ctx context.Context, def models.TariffDefinition) (*models.TariffDefinition, error) {
	trimDefinition(&def)
	if err := r.policy.Validate(&def); err != nil {
		return nil, err
	}
	if err := r.policy.Assign(&def); err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, def); err != nil {
		return nil, err
	}
	return &def, nil
}

// List returns every definition in the scope; empty when none.
func (r *OverrideRegistry) List(ctx context.Context) ([]models.TariffDefinition, error) {
	defs, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if defs == nil {
		defs = []models.TariffDefinition{}
	}
	return defs, nil
}

// GetByID returns the definition with id or a NotFoundError.
func (r *OverrideRegistry) GetByID(ctx context.Context, id string) (*models.TariffDefinition, error) {
	if err := r.policy.Check(id); err != nil {
		return nil, err
	}
	def, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, overrideNotFound(id)
	}
	return def, nil
}

// Update replaces every field of the definition with id except the id itself.
func (r *OverrideRegistry) Update(ctx context.Context, id string, def models.TariffDefinition) (*models.TariffDefinition, error) {
	trimDefinition(&def)
	if err := r.policy.Bind(id, &def); err != nil {
		return nil, err
	}
	if err := r.policy.Validate(&def); err != nil {
		return nil, err
	}

	existing, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, overrideNotFound(id)
	}

	if err := r.store.Put(ctx, def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Delete removes the definition with id or returns a NotFoundError.
func (r *OverrideRegistry) Delete(ctx context.Context, id string) error {
	if err := r.policy.Check(id); err != nil {
		return err
	}
	ok, err := r.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return overrideNotFound(id)
	}
	return nil
}

// Clear removes every definition in the scope.
func (r *OverrideRegistry) Clear(ctx context.Context) error {
	return r.store.Clear(ctx)
}

func overrideNotFound(id string) error {
	return utils.NewNotFoundError("override", "tariff override %q not found", id)
}

func trimDefinition(def *models.TariffDefinition) {
	def.ID = strings.TrimSpace(def.ID)
	def.Product = strings.TrimSpace(def.Product)
	def.ExportingFrom = strings.TrimSpace(def.ExportingFrom)
	def.ImportingTo = strings.TrimSpace(def.ImportingTo)
	def.Type = strings.TrimSpace(def.Type)
	def.EffectiveDate = strings.TrimSpace(def.EffectiveDate)
	def.ExpirationDate = strings.TrimSpace(def.ExpirationDate)
}

// SessionIdentity assigns random UUIDs to definitions saved without an id.
type SessionIdentity struct{}

// Assign generates an id when def has none.
func (SessionIdentity) Assign(def *models.TariffDefinition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	return nil
}

// Bind applies id to def.
func (p SessionIdentity) Bind(id string, def *models.TariffDefinition) error {
	if err := p.Check(id); err != nil {
		return err
	}
	def.ID = id
	return nil
}

// Check rejects a blank id.
func (SessionIdentity) Check(id string) error {
	if strings.TrimSpace(id) == "" {
		return utils.NewValidationError("id", "override id is required")
	}
	return nil
}

// Validate accepts any definition.
func (SessionIdentity) Validate(*models.TariffDefinition) error { return nil }

// AdminIdentity derives ids from the country pair and validates definitions
// before they reach the shared rate table.
type AdminIdentity struct {
	validate *validator.Validate
}

// Length limits mirror the tariff_rates column widths.
type adminOverrideInput struct {
	ImportingTo    string  `validate:"required,max=100"`
	ExportingFrom  string  `validate:"required,max=100"`
	Product        string  `validate:"max=255"`
	Type           string  `validate:"oneof=AHS MFN"`
	Rate           float64 `validate:"gte=0"`
	EffectiveDate  string  `validate:"max=64"`
	ExpirationDate string  `validate:"max=64"`
}

var adminFieldNames = map[string]string{
	"ImportingTo":    "importingTo",
	"ExportingFrom":  "exportingFrom",
	"Product":        "product",
	"Type":           "type",
	"Rate":           "rate",
	"EffectiveDate":  "effectiveDate",
	"ExpirationDate": "expirationDate",
}

var adminFieldMessages = map[string]map[string]string{
	"ImportingTo": {
		"required": "destination country is required",
		"max":      "destination country must be at most 100 characters",
	},
	"ExportingFrom": {
		"required": "origin country is required",
		"max":      "origin country must be at most 100 characters",
	},
	"Product":        {"max": "product must be at most 255 characters"},
	"Type":           {"oneof": "rate type must be AHS or MFN"},
	"Rate":           {"gte": "rate must be greater than or equal to 0"},
	"EffectiveDate":  {"max": "effectiveDate must be at most 64 characters"},
	"ExpirationDate": {"max": "expirationDate must be at most 64 characters"},
}

// NewAdminIdentity constructs an AdminIdentity.
func NewAdminIdentity() *AdminIdentity {
	return &AdminIdentity{validate: validator.New()}
}

// Assign sets def.ID to "{importingTo}_{exportingFrom}", ignoring any
// caller-supplied id.
func (p *AdminIdentity) Assign(def *models.TariffDefinition) error {
	id := models.AdminOverrideID(def.ImportingTo, def.ExportingFrom)
	if _, _, err := models.ParseAdminOverrideID(id); err != nil {
		return utils.NewValidationError("id", "country names must not contain '_'")
	}
	def.ID = id
	return nil
}

// Bind parses id back into the country pair and applies it to def.
func (p *AdminIdentity) Bind(id string, def *models.TariffDefinition) error {
	importing, exporting, err := models.ParseAdminOverrideID(id)
	if err != nil {
		return utils.NewValidationError("id", err.Error())
	}
	def.ID = id
	def.ImportingTo = importing
	def.ExportingFrom = exporting
	return nil
}

// Check rejects ids that do not split into two non-empty segments.
func (p *AdminIdentity) Check(id string) error {
	if _, _, err := models.ParseAdminOverrideID(id); err != nil {
		return utils.NewValidationError("id", err.Error())
	}
	return nil
}

// Validate enforces required countries, the rate type, a non-negative rate
// and the column length limits.
func (p *AdminIdentity) Validate(def *models.TariffDefinition) error {
	err := p.validate.Struct(adminOverrideInput{
		ImportingTo:    def.ImportingTo,
		ExportingFrom:  def.ExportingFrom,
		Product:        def.Product,
		Type:           def.Type,
		Rate:           def.Rate,
		EffectiveDate:  def.EffectiveDate,
		ExpirationDate: def.ExpirationDate,
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return utils.NewValidationError(adminFieldNames[fe.Field()], adminFieldMessages[fe.Field()][fe.Tag()])
	}
	return utils.NewValidationError("", err.Error())
}
