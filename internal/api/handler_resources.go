package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itms-booking-backend/internal/model"
)

type createResourceRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Category    model.ResourceCategory `json:"category" binding:"required"`
	Description string                 `json:"description"`
	Capacity    int                    `json:"capacity"`
	Location    string                 `json:"location"`
	HourlyRate  decimal.Decimal        `json:"hourlyRate"`
}

// CreateResource handles POST /api/resources (manage_resources capability).
func (h *Handler) CreateResource(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Category.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	if req.Capacity <= 0 {
		req.Capacity = 1
	}

	now := time.Now().UTC()
	resource := model.Resource{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Status:      model.ResourceAvailable,
		HourlyRate:  req.HourlyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateResource(c.Request.Context(), &resource); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": resource})
}

type updateResourceRequest struct {
	Name        *string                 `json:"name"`
	Category    *model.ResourceCategory `json:"category"`
	Description *string                 `json:"description"`
	Capacity    *int                    `json:"capacity"`
	Location    *string                 `json:"location"`
	Status      *model.ResourceStatus   `json:"status"`
	HourlyRate  *decimal.Decimal        `json:"hourlyRate"`
}

// UpdateResource handles PUT /api/resources/:resource_id (manage_resources
// capability). Setting status to MAINTENANCE or RETIRED stops new bookings;
// existing bookings are untouched.
func (h *Handler) UpdateResource(c *gin.Context) {
	var req updateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resource, err := h.store.GetResource(c.Request.Context(), c.Param("resource_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if req.Name != nil {
		resource.Name = *req.Name
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
		resource.Category = *req.Category
	}
	if req.Description != nil {
		resource.Description = *req.Description
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		resource.Capacity = *req.Capacity
	}
	if req.Location != nil {
		resource.Location = *req.Location
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		resource.Status = *req.Status
	}
	if req.HourlyRate != nil {
		resource.HourlyRate = *req.HourlyRate
	}
	resource.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateResource(c.Request.Context(), resource); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": resource})
}

// GetResource handles GET /api/resources/:resource_id.
func (h *Handler) GetResource(c *gin.Context) {
	resource, err := h.store.GetResource(c.Request.Context(), c.Param("resource_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": resource})
}

// ListResources handles GET /api/resources?category=.
func (h *Handler) ListResources(c *gin.Context) {
	category := model.ResourceCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	resources, err := h.store.ListResources(c.Request.Context(), category)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}
