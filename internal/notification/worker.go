package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"itms-booking-backend/internal/booking"
	"itms-booking-backend/internal/model"
	"itms-booking-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job is one booking event to deliver to the requester's subscriptions.
type Job struct {
	Booking model.Booking
	Event   string
}

// pushPayload is the JSON body handed to the service worker on the client.
type pushPayload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
}

// WorkerPool manages a pool of workers delivering booking-event push
// notifications. It satisfies booking.Notifier; enqueueing never blocks the
// booking operation. When the queue is full the event is dropped and logged.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*8),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.process(ctx, job)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Notify implements booking.Notifier.
func (wp *WorkerPool) Notify(b *model.Booking, event string) {
	select {
	case wp.jobs <- Job{Booking: *b, Event: event}:
	default:
		log.Printf("notification queue full, dropping %s for booking %s", event, b.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// process fetches the requester's subscriptions and pushes the event to each.
func (wp *WorkerPool) process(ctx context.Context, job Job) {
	subs, err := wp.store.SubscriptionsForUser(ctx, job.Booking.RequesterID)
	if err != nil {
		log.Printf("error fetching subscriptions for user %s: %v", job.Booking.RequesterID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{
		Title:     "Booking update",
		Body:      eventMessage(job),
		BookingID: job.Booking.ID,
		Status:    string(job.Booking.Status),
	})
	if err != nil {
		log.Printf("error marshalling push payload for booking %s: %v", job.Booking.ID, err)
		return
	}

	for _, sub := range subs {
		wp.sendNotification(ctx, sub, payload)
	}
}

// eventMessage renders the human-readable notification line.
func eventMessage(job Job) string {
	switch job.Event {
	case booking.EventCreated:
		return fmt.Sprintf("Your booking %q was received and is pending approval.", job.Booking.Title)
	case booking.EventApproved:
		return fmt.Sprintf("Your booking %q was approved.", job.Booking.Title)
	case booking.EventRejected:
		return fmt.Sprintf("Your booking %q was rejected.", job.Booking.Title)
	case booking.EventCancelled:
		return fmt.Sprintf("Your booking %q was cancelled.", job.Booking.Title)
	}
	return fmt.Sprintf("Your booking %q changed status to %s.", job.Booking.Title, job.Booking.Status)
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
