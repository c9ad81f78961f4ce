package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"itms-booking-backend/internal/booking"
	"itms-booking-backend/internal/model"
)

// GetAvailability handles GET /api/resources/:resource_id/availability?from=&to=.
// It returns the free/busy timeline for the range together with the active
// bookings backing the busy spans.
func (h *Handler) GetAvailability(c *gin.Context) {
	from, to, ok := requireRangeQuery(c)
	if !ok {
		return
	}
	resourceID := c.Param("resource_id")
	ctx := c.Request.Context()

	spans, err := h.engine.FreeBusy(ctx, resourceID, from, to)
	if err != nil {
		abortWithError(c, err)
		return
	}

	active, err := h.engine.List(ctx, booking.ListFilter{
		ResourceID: resourceID,
		Statuses:   model.ActiveStatuses,
		From:       from,
		To:         to,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resourceId": resourceID,
		"from":       from,
		"to":         to,
		"spans":      spans,
		"bookings":   active,
	})
}

// GetResourceFree handles GET /api/resources/:resource_id/free?from=&to=:
// a single yes/no availability probe for one interval.
func (h *Handler) GetResourceFree(c *gin.Context) {
	from, to, ok := requireRangeQuery(c)
	if !ok {
		return
	}

	free, err := h.engine.IsFree(c.Request.Context(), c.Param("resource_id"), from, to)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"resourceId": c.Param("resource_id"),
		"from":       from,
		"to":         to,
		"free":       free,
	})
}

// requireRangeQuery reads the mandatory from/to RFC3339 query parameters.
func requireRangeQuery(c *gin.Context) (from, to time.Time, ok bool) {
	if from, ok = parseTimeQuery(c, "from"); !ok {
		return
	}
	if to, ok = parseTimeQuery(c, "to"); !ok {
		return
	}
	if from.IsZero() || to.IsZero() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
