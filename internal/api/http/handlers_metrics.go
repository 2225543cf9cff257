package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsJSON serves headline counters for dashboards that do not scrape
// Prometheus
func (h *Handlers) MetricsJSON(c *gin.Context) {
	snap := h.metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"uptime_seconds": h.metrics.UptimeSeconds(),
		"metrics":        snap,
	})
}
