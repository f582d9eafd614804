package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RateRefresher is satisfied by *service.CurrencyService.
type RateRefresher interface {
	Refresh(ctx context.Context) bool
}

// CurrencyWorker periodically refreshes exchange rates so calculations
// rarely wait on the live source.
type CurrencyWorker struct {
	refresher RateRefresher
	interval  time.Duration
}

// NewCurrencyWorker constructs a CurrencyWorker.
func NewCurrencyWorker(refresher RateRefresher, interval time.Duration) *CurrencyWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &CurrencyWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// Start begins the periodic refresh loop and listens for context cancellation.
func (w *CurrencyWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting currency worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Currency worker stopped")
			return
		}
	}
}

func (w *CurrencyWorker) run(ctx context.Context) {
	start := time.Now()
	if !w.refresher.Refresh(ctx) {
		log.Warn().Msg("Exchange rate refresh failed, serving fallback rates")
		return
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("Exchange rates refreshed")
}
