package models

// CountryComparison is the landed cost for one destination.
type CountryComparison struct {
	Country      string  `json:"country"`
	TariffRate   float64 `json:"tariffRate"`
	TariffType   string  `json:"tariffType"`
	ProductCost  float64 `json:"productCost"`
	TariffAmount float64 `json:"tariffAmount"`
	TotalCost    float64 `json:"totalCost"`
	HasFTA       bool    `json:"hasFta"`
	Rank         int     `json:"rank"`
}

// ChartData holds parallel arrays in ranked order.
type ChartData struct {
	Countries     []string  `json:"countries"`
	TariffRates   []float64 `json:"tariffRates"`
	TariffAmounts []float64 `json:"tariffAmounts"`
	TotalCosts    []float64 `json:"totalCosts"`
	TariffTypes   []string  `json:"tariffTypes"`
}

// ComparisonResult ranks destinations by total cost, cheapest first.
type ComparisonResult struct {
	Product       string              `json:"product"`
	ExportingFrom string              `json:"exportingFrom"`
	Quantity      float64             `json:"quantity"`
	Unit          string              `json:"unit"`
	Currency      string              `json:"currency"`
	Comparisons   []CountryComparison `json:"comparisons"`
	Skipped       []string            `json:"skipped,omitempty"`
	ChartData     ChartData           `json:"chartData"`
}

// HistoryPoint is one month of a tariff rate series.
type HistoryPoint struct {
	Month      string  `json:"month"`
	TariffRate float64 `json:"tariffRate"`
}

// TariffHistory is a monthly rate series for one route.
type TariffHistory struct {
	Product       string         `json:"product"`
	ExportingFrom string         `json:"exportingFrom"`
	ImportingTo   string         `json:"importingTo"`
	TariffType    string         `json:"tariffType"`
	CurrentRate   float64        `json:"currentRate"`
	Points        []HistoryPoint `json:"points"`
}

// TariffTrends groups history series for several destinations.
type TariffTrends struct {
	Product       string          `json:"product"`
	ExportingFrom string          `json:"exportingFrom"`
	StartMonth    string          `json:"startMonth"`
	EndMonth      string          `json:"endMonth"`
	Series        []TariffHistory `json:"series"`
}
