package service

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/GTDGit/gtd_tariff/internal/models"
	"github.com/GTDGit/gtd_tariff/internal/utils"
)

const (
	monthLayout      = "2006-01"
	defaultMonths    = 12
	maxHistoryMonths = 120
	historyJitter    = 0.25
)

// HistoryGenerator produces a monthly rate series ending at the current rate.
// The synthetic implementation stands in until a real historical store exists.
type HistoryGenerator interface {
	Generate(currentRate float64, months []time.Time) []models.HistoryPoint
}

// SyntheticHistory jitters the current rate by up to ±0.25 percentage
// points per month. Rates never go below zero.
type SyntheticHistory struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticHistory builds a generator over src. A nil src uses a
// time-seeded PCG source.
func NewSyntheticHistory(src rand.Source) *SyntheticHistory {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1)
	}
	return &SyntheticHistory{rng: rand.New(src)}
}

// Generate implements HistoryGenerator.
func (g *SyntheticHistory) Generate(currentRate float64, months []time.Time) []models.HistoryPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	points := make([]models.HistoryPoint, 0, len(months))
	for _, m := range months {
		rate := currentRate + (g.rng.Float64()*2-1)*historyJitter
		if rate < 0 {
			rate = 0
		}
		points = append(points, models.HistoryPoint{Month: m.Format(monthLayout), TariffRate: rate})
	}
	return points
}

// monthRange expands [start, end] into first-of-month instants. Blank bounds
// default to the twelve months ending in the month of now.
func monthRange(startRaw, endRaw string, now time.Time) ([]time.Time, error) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(endRaw) != "" {
		e, err := parseMonth(endRaw)
		if err != nil {
			return nil, utils.NewValidationError("endDate", "endDate must be YYYY-MM or YYYY-MM-DD")
		}
		end = e
	}

	start := end.AddDate(0, -(defaultMonths - 1), 0)
	if strings.TrimSpace(startRaw) != "" {
		s, err := parseMonth(startRaw)
		if err != nil {
			return nil, utils.NewValidationError("startDate", "startDate must be YYYY-MM or YYYY-MM-DD")
		}
		start = s
	}

	if start.After(end) {
		return nil, utils.NewValidationError("startDate", "startDate must not be after endDate")
	}

	var months []time.Time
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
		if len(months) > maxHistoryMonths {
			return nil, utils.NewValidationError("startDate", "date range must not exceed 120 months")
		}
	}
	return months, nil
}

func parseMonth(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(monthLayout) {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Parse(monthLayout, raw)
}
