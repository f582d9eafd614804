package service

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GTDGit/gtd_tariff/internal/metrics"
	"github.com/GTDGit/gtd_tariff/internal/models"
)

// BaseCurrency is the denomination of every stored cost.
const BaseCurrency = "USD"

// currencyNames is the fixed table of supported currencies.
var currencyNames = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"JPY": "Japanese Yen",
	"CNY": "Chinese Yuan",
	"SGD": "Singapore Dollar",
	"MYR": "Malaysian Ringgit",
	"THB": "Thai Baht",
	"IDR": "Indonesian Rupiah",
	"KRW": "South Korean Won",
}

// fallbackRates are approximate USD-relative rates used when the live source
// cannot answer.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.5,
	"CNY": 7.24,
	"SGD": 1.34,
	"MYR": 4.47,
	"THB": 35.6,
	"IDR": 15600.0,
	"KRW": 1330.0,
}

// RateSource fetches the live USD-relative rate table.
type RateSource interface {
	LatestUSD(ctx context.Context) (map[string]float64, error)
}

// rateSnapshot is immutable once published; refreshes swap in a new one.
type rateSnapshot struct {
	rates     map[string]float64
	fetchedAt time.Time
}

// CurrencyService converts USD amounts using a lazily refreshed snapshot of
// exchange rates. The rate source is never allowed to fail a caller: every
// failure degrades to the last snapshot or the static table.
type CurrencyService struct {
	source  RateSource
	ttl     time.Duration
	now     func() time.Time
	timeout time.Duration

	snapshot atomic.Pointer[rateSnapshot]
	group    singleflight.Group
}

// NewCurrencyService constructs a CurrencyService. ttl is the staleness
// tolerance of the snapshot; timeout bounds a single refresh.
func NewCurrencyService(source RateSource, ttl, timeout time.Duration) *CurrencyService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CurrencyService{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		timeout: timeout,
	}
}

// GetExchangeRate returns the USD-relative rate for code. USD and a blank
// code are 1.0; unknown codes are 1.0.
func (s *CurrencyService) GetExchangeRate(ctx context.Context, code string) float64 {
	code = normalizeCurrency(code)
	if code == BaseCurrency {
		return 1.0
	}

	snap := s.snapshot.Load()
	if s.fresh(snap) {
		if rate, ok := snap.rates[code]; ok {
			return rate
		}
	}

	if fetched := s.refresh(ctx); fetched != nil {
		if rate, ok := fetched.rates[code]; ok {
			return rate
		}
	}

	// Degraded path: last known snapshot, then the static table.
	if snap := s.snapshot.Load(); snap != nil {
		if rate, ok := snap.rates[code]; ok {
			metrics.CurrencyFallbackTotal.WithLabelValues("stale").Inc()
			return rate
		}
	}
	if rate, ok := fallbackRates[code]; ok {
		metrics.CurrencyFallbackTotal.WithLabelValues("static").Inc()
		return rate
	}
	metrics.CurrencyFallbackTotal.WithLabelValues("unknown").Inc()
	return 1.0
}

// ConvertFromUSD converts amount into code. A zero amount is returned as is
// without consulting rates.
func (s *CurrencyService) ConvertFromUSD(ctx context.Context, amount float64, code string) float64 {
	if amount == 0 {
		return 0
	}
	return amount * s.GetExchangeRate(ctx, code)
}

// GetSupportedCurrencies refreshes a stale snapshot and returns the supported
// currency table with current or fallback rates.
func (s *CurrencyService) GetSupportedCurrencies(ctx context.Context) models.SupportedCurrencies {
	snap := s.snapshot.Load()
	if !s.fresh(snap) {
		if fetched := s.refresh(ctx); fetched != nil {
			snap = fetched
		} else {
			snap = s.snapshot.Load()
		}
	}

	out := models.SupportedCurrencies{
		Currencies:  make([]models.CurrencyInfo, 0, len(currencyNames)),
		LastUpdated: "Never",
		Degraded:    !s.fresh(snap),
	}
	if snap != nil {
		out.LastUpdated = snap.fetchedAt.Format(time.RFC3339)
	}

	for code, name := range currencyNames {
		rate, ok := 0.0, false
		if snap != nil {
			rate, ok = snap.rates[code]
		}
		if !ok {
			rate = fallbackRates[code]
		}
		out.Currencies = append(out.Currencies, models.CurrencyInfo{Code: code, Name: name, Rate: rate})
	}
	sort.Slice(out.Currencies, func(i, j int) bool {
		return out.Currencies[i].Code < out.Currencies[j].Code
	})
	return out
}

// Refresh fetches a new snapshot now, regardless of age. It reports whether
// the live source answered.
func (s *CurrencyService) Refresh(ctx context.Context) bool {
	return s.refresh(ctx) != nil
}

// Degraded reports whether the converter currently lacks a fresh snapshot.
func (s *CurrencyService) Degraded() bool {
	return !s.fresh(s.snapshot.Load())
}

func (s *CurrencyService) fresh(snap *rateSnapshot) bool {
	return snap != nil && s.now().Sub(snap.fetchedAt) < s.ttl
}

// refresh fetches a new snapshot and publishes it. Concurrent callers share
// one fetch. It returns nil when the source failed.
func (s *CurrencyService) refresh(ctx context.Context) *rateSnapshot {
	v, _, _ := s.group.Do("latest", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		rates, err := s.source.LatestUSD(fetchCtx)
		if err != nil {
			metrics.CurrencyRefreshTotal.WithLabelValues("error").Inc()
			log.Warn().Err(err).Msg("exchange rate refresh failed, using fallback rates")
			return (*rateSnapshot)(nil), nil
		}

		copied := make(map[string]float64, len(rates))
		for code, rate := range rates {
			copied[strings.ToUpper(code)] = rate
		}
		snap := &rateSnapshot{rates: copied, fetchedAt: s.now()}
		s.snapshot.Store(snap)

		metrics.CurrencyRefreshTotal.WithLabelValues("success").Inc()
		log.Debug().Int("currencies", len(copied)).Msg("exchange rates refreshed")
		return snap, nil
	})
	return v.(*rateSnapshot)
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return BaseCurrency
	}
	return code
}
