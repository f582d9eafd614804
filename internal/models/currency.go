package models

// CurrencyInfo describes one supported currency and its USD-relative rate.
type CurrencyInfo struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// SupportedCurrencies lists the currencies accepted for conversion.
// Degraded is true when rates did not come from a fresh live snapshot.
type SupportedCurrencies struct {
	Currencies  []CurrencyInfo `json:"currencies"`
	LastUpdated string         `json:"lastUpdated"`
	Degraded    bool           `json:"degraded"`
}
