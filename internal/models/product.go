package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry whose unit cost is USD-denominated.
// Names are not unique across brands or variants.
type Product struct {
	ID        int                 `db:"id" json:"id"`
	Name      string              `db:"name" json:"name"`
	Brand     string              `db:"brand" json:"brand,omitempty"`
	UnitCost  decimal.NullDecimal `db:"unit_cost" json:"unitCost"`
	Unit      string              `db:"unit" json:"unit"`
	CreatedAt time.Time           `db:"created_at" json:"-"`
	UpdatedAt time.Time           `db:"updated_at" json:"updatedAt"`
}

// Cost returns the stored unit cost, treating NULL as zero.
func (p *Product) Cost() decimal.Decimal {
	if !p.UnitCost.Valid {
		return decimal.Zero
	}
	return p.UnitCost.Decimal
}
