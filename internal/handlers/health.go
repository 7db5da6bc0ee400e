package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports database status, see db.Health.
type HealthCheck func(ctx context.Context) map[string]string

func Health(check HealthCheck, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := check(c.Request.Context())
		if stats["status"] != "up" {
			log.Errorw("health check failed", "error", stats["error"])
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
