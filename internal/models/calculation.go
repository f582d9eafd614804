package models

// BreakdownItem is one line of a calculation breakdown.
type BreakdownItem struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Rate        string  `json:"rate"`
	Amount      float64 `json:"amount"`
}

// CalculationResult is the cost breakdown for a single shipment.
// Amounts are expressed in Currency.
type CalculationResult struct {
	Product       string          `json:"product"`
	ExportingFrom string          `json:"exportingFrom"`
	ImportingTo   string          `json:"importingTo"`
	Quantity      float64         `json:"quantity"`
	Unit          string          `json:"unit"`
	ProductCost   float64         `json:"productCost"`
	TariffAmount  float64         `json:"tariffAmount"`
	TotalCost     float64         `json:"totalCost"`
	TariffRate    float64         `json:"tariffRate"`
	TariffType    string          `json:"tariffType"`
	HasFTA        bool            `json:"hasFta"`
	Breakdown     []BreakdownItem `json:"breakdown"`
	Currency      string          `json:"currency"`
}
