package service

import (
	"strings"

	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

// Wire names of the calculation modes.
const (
	ModeGlobal    = "global"
	ModeSimulated = "simulated"
)

// CalculationMode selects where the applied tariff rate comes from. It is
// either GlobalMode or SimulatedMode.
type CalculationMode interface {
	Name() string
	isCalculationMode()
}

// GlobalMode resolves the rate from the rate table with FTA classification.
type GlobalMode struct{}

// Name implements CalculationMode.
func (GlobalMode) Name() string { return ModeGlobal }

func (GlobalMode) isCalculationMode() {}

// SimulatedMode resolves the rate from caller-supplied overrides.
// OverrideID pins one definition; when blank the first definition matching
// the product and route is used.
type SimulatedMode struct {
	OverrideID string
	Candidates []models.TariffDefinition
}

// Name implements CalculationMode.
func (SimulatedMode) Name() string { return ModeSimulated }

func (SimulatedMode) isCalculationMode() {}

// ParseMode normalizes a wire mode flag. Blank means global.
func ParseMode(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ModeGlobal:
		return ModeGlobal, nil
	case ModeSimulated:
		return ModeSimulated, nil
	default:
		return "", utils.NewValidationError("mode", "mode must be global or simulated")
	}
}

// FindMatchingOverride picks the override for a product and route. With an
// explicit id only the candidate carrying that id and the same product and
// route qualifies; there is no fallback to a route match. Without an id the
// first candidate matching the product and route wins.
func FindMatchingOverride(overrideID, product, origin, destination string, candidates []models.TariffDefinition) *models.TariffDefinition {
	overrideID = strings.TrimSpace(overrideID)
	for i := range candidates {
		c := &candidates[i]
		if overrideID != "" && c.ID != overrideID {
			continue
		}
		if sameName(c.Product, product) && sameName(c.ExportingFrom, origin) && sameName(c.ImportingTo, destination) {
			return c
		}
		if overrideID != "" {
			return nil
		}
	}
	return nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
