package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"itms-booking-backend/internal/booking"
)

// abortWithError translates engine failures into HTTP statuses. Unknown
// errors become a 500 without leaking their message.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, booking.ErrResourceNotFound),
		errors.Is(err, booking.ErrBookingNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, booking.ErrInvalidInterval):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, booking.ErrResourceUnavailable):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, booking.ErrBookingConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, booking.ErrInvalidTransition):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, booking.ErrUnauthorized):
		status, message = http.StatusForbidden, err.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
