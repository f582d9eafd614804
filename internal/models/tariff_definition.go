package models

import (
	"errors"
	"strings"
)

// TariffDefinition is a caller-supplied ("simulated") tariff that replaces
// the rate table lookup for one product and route. Effective and expiration
// dates are informational only.
type TariffDefinition struct {
	ID             string  `json:"id"`
	Product        string  `json:"product"`
	ExportingFrom  string  `json:"exportingFrom"`
	ImportingTo    string  `json:"importingTo"`
	Type           string  `json:"type"`
	Rate           float64 `json:"rate"`
	EffectiveDate  string  `json:"effectiveDate,omitempty"`
	ExpirationDate string  `json:"expirationDate,omitempty"`
}

// ErrMalformedOverrideID is returned when an admin override id does not
// split into exactly two non-empty country segments.
var ErrMalformedOverrideID = errors.New("override id must have the form {importingTo}_{exportingFrom}")

// AdminOverrideID encodes the composite identity of an admin override.
func AdminOverrideID(importingTo, exportingFrom string) string {
	return importingTo + "_" + exportingFrom
}

// ParseAdminOverrideID splits an admin override id into its importing and
// exporting countries.
func ParseAdminOverrideID(id string) (importingTo, exportingFrom string, err error) {
	parts := strings.Split(id, "_")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", ErrMalformedOverrideID
	}
	return parts[0], parts[1], nil
}
