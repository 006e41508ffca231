// Package notify delivers best-effort booking notifications. Delivery never blocks
// or fails the operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Govind-619/RentSphere/utils"
)

// EventType names a booking notification
type EventType string

const (
	EventBookingCreated       EventType = "BOOKING_CREATED"
	EventBookingStatusChanged EventType = "BOOKING_STATUS_CHANGED"
	EventBookingPaid          EventType = "BOOKING_PAID"
)

// BookingPayload is the booking snapshot carried by every event
type BookingPayload struct {
	BookingID    string `json:"bookingId"`
	ListingID    string `json:"listingId"`
	ListingTitle string `json:"listingTitle,omitempty"`
	OwnerID      string `json:"ownerId"`
	UserID       string `json:"userId"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	TotalAmount  int64  `json:"totalAmount"`
	Status       string `json:"status"`
}

// Event is a notification about a booking
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      BookingPayload `json:"data"`
}

// Dispatcher hands events to notification channels without waiting for them
type Dispatcher interface {
	Notify(ctx context.Context, e Event)
}

// Sink is one notification channel
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

// Multi fans every event out to all sinks, each in its own goroutine with its own timeout.
// Errors and panics are logged and swallowed.
type Multi struct {
	sinks   []Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewMulti creates a fan-out dispatcher
func NewMulti(timeout time.Duration, sinks ...Sink) *Multi {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Multi{sinks: sinks, timeout: timeout}
}

// Notify implements Dispatcher
func (m *Multi) Notify(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	for _, sink := range m.sinks {
		m.wg.Add(1)
		go m.deliver(context.WithoutCancel(ctx), sink, e)
	}
}

func (m *Multi) deliver(ctx context.Context, sink Sink, e Event) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			utils.LogError("Notification sink %s panicked on %s: %v", sink.Name(), e.Type, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := sink.Send(ctx, e); err != nil {
		utils.LogWarn("Notification sink %s failed for %s (booking %s): %v", sink.Name(), e.Type, e.Data.BookingID, err)
		return
	}
	utils.LogDebug("Notification %s for booking %s sent via %s", e.Type, e.Data.BookingID, sink.Name())
}

// Wait blocks until in-flight deliveries finish or ctx is done
func (m *Multi) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for notifications: %w", ctx.Err())
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
