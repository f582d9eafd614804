package models

import "time"

// Admin override rate type labels. Each maps to one percentage column of a
// TariffRate row.
const (
	RateTypeAHS = "AHS"
	RateTypeMFN = "MFN"
)

// Labels attached to calculation results.
const (
	RateLabelFTA         = "AHS (with FTA)"
	RateLabelMFN         = "MFN (no FTA)"
	RateLabelUserDefined = "(user-defined)"
)

// TariffRate is the rate table row for one ordered country pair
// (importing country, exporting/partner country).
type TariffRate struct {
	ImportingCountry string   `db:"importing_country" json:"importingCountry"`
	ExportingCountry string   `db:"exporting_country" json:"exportingCountry"`
	AHSRate          *float64 `db:"ahs_rate" json:"ahsRate"`
	MFNRate          *float64 `db:"mfn_rate" json:"mfnRate"`

	// Override metadata, populated only for rows written through the admin scope.
	IsOverride     bool      `db:"is_override" json:"isOverride"`
	ProductName    *string   `db:"product_name" json:"productName,omitempty"`
	RateType       *string   `db:"rate_type" json:"rateType,omitempty"`
	EffectiveDate  *string   `db:"effective_date" json:"effectiveDate,omitempty"`
	ExpirationDate *string   `db:"expiration_date" json:"expirationDate,omitempty"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Preferential returns the AHS rate, 0 when unset.
func (r *TariffRate) Preferential() float64 {
	if r.AHSRate == nil {
		return 0
	}
	return *r.AHSRate
}

// Standard returns the MFN rate, 0 when unset.
func (r *TariffRate) Standard() float64 {
	if r.MFNRate == nil {
		return 0
	}
	return *r.MFNRate
}
