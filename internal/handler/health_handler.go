package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_tariff/internal/utils"
)

var startTime = time.Now()

// ContextPinger is satisfied by *sqlx.DB.
type ContextPinger interface {
	PingContext(ctx context.Context) error
}

// Pinger is satisfied by *cache.RedisClient.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DegradedReporter reports whether exchange rates are served from fallbacks.
type DegradedReporter interface {
	Degraded() bool
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db       ContextPinger
	redis    Pinger
	currency DegradedReporter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db ContextPinger, redis Pinger, currency DegradedReporter) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, currency: currency}
}

// GetHealth responds with service, storage and exchange-rate status. A
// failing database makes the service unhealthy; a failing cache or stale
// rates only degrade it.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
	}
	redisStatus := "connected"
	if err := h.redis.Ping(ctx); err != nil {
		redisStatus = "disconnected"
	}
	rates := "live"
	if h.currency.Degraded() {
		rates = "fallback"
	}

	if dbStatus != "connected" {
		utils.Error(c, http.StatusServiceUnavailable, utils.CodeUnavailable, "Database unavailable")
		return
	}
	status := "healthy"
	if redisStatus != "connected" || rates != "live" {
		status = "degraded"
	}

	utils.Success(c, http.StatusOK, "Service is "+status, gin.H{
		"status":   status,
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"redis":    redisStatus,
		"exchangeRates": gin.H{
			"source": rates,
		},
	})
}
