package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sh4cK-18/travel-bus/internal/worker"
	"github.com/Sh4cK-18/travel-bus/pkg/database"
	"github.com/Sh4cK-18/travel-bus/pkg/redis"
	"github.com/Sh4cK-18/travel-bus/pkg/response"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *redis.Client
	sweeper *worker.ExpirySweeper
	version string
}

// NewHealthHandler creates a new health handler. Any nil dependency is
// skipped in the report.
func NewHealthHandler(db *database.PostgresDB, rdb *redis.Client, sweeper *worker.ExpirySweeper, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, sweeper: sweeper, version: version}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	status := "ok"
	checks := gin.H{}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			status = "degraded"
			checks["postgres"] = err.Error()
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			status = "degraded"
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}
	if h.sweeper != nil {
		checks["sweeper"] = h.sweeper.GetStats()
	}

	body := gin.H{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	}
	if status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response.Response{Success: false, Data: body})
		return
	}
	response.Success(c, body)
}

// Ready handles GET /ready. Unlike Health it only answers whether the service
// can take traffic: the database must be reachable, everything else is
// reported by Health without failing readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    gin.H{"ready": false, "reason": err.Error()},
			})
			return
		}
	}
	response.Success(c, gin.H{"ready": true})
}
