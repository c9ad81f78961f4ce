package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"itms-booking-backend/internal/authz"
	"itms-booking-backend/internal/booking"
	"itms-booking-backend/internal/model"
	"itms-booking-backend/internal/mw"
)

type createBookingRequest struct {
	ResourceID          string    `json:"resourceId" binding:"required"`
	Title               string    `json:"title" binding:"required"`
	Description         string    `json:"description"`
	StartTime           time.Time `json:"startTime" binding:"required"`
	EndTime             time.Time `json:"endTime" binding:"required"`
	Purpose             string    `json:"purpose"`
	Attendees           int       `json:"attendees"`
	ContactInfo         string    `json:"contactInfo"`
	SpecialRequirements string    `json:"specialRequirements"`
}

// CreateBooking handles POST /api/bookings. The requester is always the
// authenticated caller.
func (h *Handler) CreateBooking(c *gin.Context) {
	p, _ := mw.PrincipalFrom(c)

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.engine.Create(c.Request.Context(), booking.CreateInput{
		ResourceID:          req.ResourceID,
		RequesterID:         p.UserID,
		Title:               req.Title,
		Description:         req.Description,
		Start:               req.StartTime,
		End:                 req.EndTime,
		Purpose:             req.Purpose,
		Attendees:           req.Attendees,
		ContactInfo:         req.ContactInfo,
		SpecialRequirements: req.SpecialRequirements,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GetBooking handles GET /api/bookings/:booking_id.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.engine.Get(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListBookings handles GET /api/bookings with optional resource_id,
// requester_id, status, from and to filters. Results are ordered by start
// time ascending.
func (h *Handler) ListBookings(c *gin.Context) {
	filter := booking.ListFilter{
		ResourceID:  c.Query("resource_id"),
		RequesterID: c.Query("requester_id"),
	}

	if status := c.Query("status"); status != "" {
		st := model.BookingStatus(status)
		if !st.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		filter.Statuses = []model.BookingStatus{st}
	}

	var ok bool
	if filter.From, ok = parseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = parseTimeQuery(c, "to"); !ok {
		return
	}

	bookings, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

type approvalRequest struct {
	Status model.BookingStatus `json:"status" binding:"required"`
	Notes  string              `json:"notes"`
}

// ApproveBooking handles POST /api/bookings/:booking_id/approve. The body
// carries APPROVED or REJECTED; the caller's role must allow approving the
// resource's category.
func (h *Handler) ApproveBooking(c *gin.Context) {
	p, _ := mw.PrincipalFrom(c)

	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != model.BookingApproved && req.Status != model.BookingRejected {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "status must be APPROVED or REJECTED"})
		return
	}

	ctx := c.Request.Context()
	current, err := h.engine.Get(ctx, c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	resource, err := h.store.GetResource(ctx, current.ResourceID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !p.Role.CanApprove(resource.Category) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role may not approve this resource category"})
		return
	}

	var updated *model.Booking
	if req.Status == model.BookingApproved {
		updated, err = h.engine.Approve(ctx, current.ID, p.UserID)
	} else {
		updated, err = h.engine.Reject(ctx, current.ID, p.UserID, req.Notes)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": updated})
}

// CancelBooking handles POST /api/bookings/:booking_id/cancel. Requesters may
// cancel their own bookings; approvers may cancel anyone's.
func (h *Handler) CancelBooking(c *gin.Context) {
	p, _ := mw.PrincipalFrom(c)

	ctx := c.Request.Context()
	current, err := h.engine.Get(ctx, c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if current.RequesterID != p.UserID && !p.Role.Can(authz.CapApproveBooking) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only the requester or an approver may cancel"})
		return
	}

	updated, err := h.engine.Cancel(ctx, current.ID, p.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": updated})
}

// ConfirmBooking handles POST /api/bookings/:booking_id/confirm, moving an
// APPROVED booking to CONFIRMED before its start.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	updated, err := h.engine.Confirm(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": updated})
}

// parseTimeQuery reads an optional RFC3339 query parameter. On a malformed
// value it writes a 400 and reports !ok.
func parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " timestamp, use RFC3339"})
		return time.Time{}, false
	}
	return t, true
}
