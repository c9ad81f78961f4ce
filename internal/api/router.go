package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"itms-booking-backend/config"
	"itms-booking-backend/internal/authz"
	"itms-booking-backend/internal/booking"
	"itms-booking-backend/internal/mw"
	"itms-booking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, engine *booking.Service, cfg *config.Config, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, engine, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// Resource listings change rarely; cache them briefly per user.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Unauthenticated: clients need the key before they can subscribe.
	api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	authed := api.Group("")
	authed.Use(mw.Auth([]byte(cfg.Auth.JWTSecret)))
	{
		authed.GET("/resources", caching, handler.ListResources)
		authed.GET("/resources/:resource_id", handler.GetResource)
		authed.POST("/resources", mw.RequireCapability(authz.CapManageResources), handler.CreateResource)
		authed.PUT("/resources/:resource_id", mw.RequireCapability(authz.CapManageResources), handler.UpdateResource)

		authed.GET("/resources/:resource_id/availability", handler.GetAvailability)
		authed.GET("/resources/:resource_id/free", handler.GetResourceFree)

		authed.GET("/bookings", mw.RequireCapability(authz.CapReadBooking), handler.ListBookings)
		authed.POST("/bookings", mw.RequireCapability(authz.CapCreateBooking), handler.CreateBooking)
		authed.GET("/bookings/:booking_id", mw.RequireCapability(authz.CapReadBooking), handler.GetBooking)
		authed.POST("/bookings/:booking_id/approve", handler.ApproveBooking)
		authed.POST("/bookings/:booking_id/cancel", handler.CancelBooking)
		authed.POST("/bookings/:booking_id/confirm", mw.RequireCapability(authz.CapApproveBooking), handler.ConfirmBooking)

		authed.GET("/stats", mw.RequireCapability(authz.CapViewStats), handler.GetStats)

		authed.GET("/subscriptions", handler.GetSubscriptions)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
