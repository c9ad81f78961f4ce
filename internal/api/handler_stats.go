package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStats handles GET /api/stats (view_stats capability): the dashboard
// counters for resources and bookings.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
