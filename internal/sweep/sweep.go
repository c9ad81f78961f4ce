// Package sweep drives the time-based booking transitions: CONFIRMED
// bookings become IN_USE once their interval starts, IN_USE bookings become
// COMPLETED once it ends. The cadence is a deployment choice; correctness
// only needs the sweep to run eventually.
package sweep

import (
	"context"
	"log"
	"time"

	"itms-booking-backend/config"
	"itms-booking-backend/internal/booking"
)

// Service runs the periodic booking sweep.
type Service struct {
	cfg    *config.Config
	engine *booking.Service
}

// NewService creates a sweep service over the booking engine.
func NewService(cfg *config.Config, engine *booking.Service) *Service {
	return &Service{cfg: cfg, engine: engine}
}

// Run executes the sweep on the configured interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweep.Enabled {
		log.Println("Booking sweep is disabled. Not starting.")
		return
	}
	log.Println("Starting booking sweep...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Sweep.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Booking sweep shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sweep.Interval)
		}
	}
}

// SweepOnce performs a single pass over the due bookings.
func (s *Service) SweepOnce(ctx context.Context) {
	started, err := s.engine.StartDueBookings(ctx)
	if err != nil {
		log.Printf("sweep: starting due bookings failed: %v", err)
	} else if len(started) > 0 {
		log.Printf("sweep: moved %d bookings to IN_USE", len(started))
	}

	completed, err := s.engine.CompleteDueBookings(ctx)
	if err != nil {
		log.Printf("sweep: completing due bookings failed: %v", err)
	} else if len(completed) > 0 {
		log.Printf("sweep: moved %d bookings to COMPLETED", len(completed))
	}
}
