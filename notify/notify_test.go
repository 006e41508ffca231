package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (s *captureSink) Name() string { return s.name }

func (s *captureSink) Send(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
	return s.err
}

func (s *captureSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.got...)
}

type panicSink struct{}

func (panicSink) Name() string { return "panic" }

func (panicSink) Send(context.Context, Event) error { panic("sink exploded") }

type blockingSink struct{}

func (blockingSink) Name() string { return "blocking" }

func (blockingSink) Send(ctx context.Context, _ Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func testEvent(listingID string) Event {
	return Event{
		Type: EventBookingCreated,
		Data: BookingPayload{BookingID: "booking-1", ListingID: listingID, OwnerID: "owner-1", Status: "PENDING"},
	}
}

func TestMultiDeliversToEverySinkDespiteFailures(t *testing.T) {
	ok := &captureSink{name: "ok"}
	failing := &captureSink{name: "failing", err: errors.New("smtp down")}
	m := NewMulti(time.Second, panicSink{}, failing, ok)

	m.Notify(context.Background(), testEvent("listing-1"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))

	require.Len(t, ok.events(), 1)
	assert.Len(t, failing.events(), 1)
	assert.False(t, ok.events()[0].Timestamp.IsZero())
}

func TestMultiNotifyDoesNotBlock(t *testing.T) {
	m := NewMulti(50*time.Millisecond, blockingSink{})

	start := time.Now()
	m.Notify(context.Background(), testEvent("listing-1"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	// The per-sink timeout ends the delivery
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
}

func TestMultiSurvivesCancelledCaller(t *testing.T) {
	sink := &captureSink{name: "ok"}
	m := NewMulti(time.Second, sink)

	ctx, cancel := context.WithCancel(context.Background())
	m.Notify(ctx, testEvent("listing-1"))
	cancel()

	require.NoError(t, m.Wait(context.Background()))
	assert.Len(t, sink.events(), 1)
}

func TestHubBroadcastsPerListing(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("listing-a")
	b := h.Subscribe("listing-b")
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	require.NoError(t, h.Send(context.Background(), testEvent("listing-a")))

	select {
	case msg := <-a.Messages():
		var e Event
		require.NoError(t, json.Unmarshal(msg, &e))
		assert.Equal(t, EventBookingCreated, e.Type)
		assert.Equal(t, "listing-a", e.Data.ListingID)
	default:
		t.Fatal("subscriber of listing-a got nothing")
	}

	select {
	case <-b.Messages():
		t.Fatal("subscriber of listing-b got another listing's event")
	default:
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("listing-a")

	for i := 0; i <= subscriberBuffer; i++ {
		require.NoError(t, h.Send(context.Background(), testEvent("listing-a")))
	}
	assert.Zero(t, h.SubscriberCount("listing-a"))

	drained := 0
	for range sub.Messages() {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)

	// Unsubscribing a dropped subscriber is harmless
	h.Unsubscribe(sub)
}

func TestWebhookSink(t *testing.T) {
	var (
		hits     int32
		received Event
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, server.Client())
	require.NoError(t, sink.Send(context.Background(), testEvent("listing-a")))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, "booking-1", received.Data.BookingID)
}

func TestWebhookSinkOpensBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, server.Client())
	for i := 0; i < 5; i++ {
		assert.Error(t, sink.Send(context.Background(), testEvent("listing-a")))
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "booking.created", RoutingKey(EventBookingCreated))
	assert.Equal(t, "booking.status_changed", RoutingKey(EventBookingStatusChanged))
	assert.Equal(t, "booking.paid", RoutingKey(EventBookingPaid))
	assert.Equal(t, "booking.other", RoutingKey("SOMETHING_ELSE"))
}

func TestEmailContent(t *testing.T) {
	e := testEvent("listing-a")
	e.Data.ListingTitle = "Lakeside Cabin"
	e.Data.TotalAmount = 250000

	subject, body := emailContent(e)
	assert.Equal(t, "New booking request for Lakeside Cabin", subject)
	assert.Contains(t, body, "booking-1")
	assert.Contains(t, body, "250000")

	e.Type = EventBookingPaid
	subject, _ = emailContent(e)
	assert.True(t, strings.HasPrefix(subject, "Booking paid"))

	e.Type = EventBookingStatusChanged
	e.Data.ListingTitle = ""
	subject, _ = emailContent(e)
	assert.Equal(t, "Booking update for listing-a", subject)
}

func TestEmailSinkSkipsUnknownOwner(t *testing.T) {
	looked := false
	sink := NewEmailSink(SMTPConfig{Host: "localhost", Port: 2525, From: "noreply@example.com"}, func(ctx context.Context, userID string) (string, error) {
		looked = true
		return "", nil
	})

	require.NoError(t, sink.Send(context.Background(), testEvent("listing-a")))
	assert.True(t, looked)

	e := testEvent("listing-a")
	e.Data.OwnerID = ""
	looked = false
	require.NoError(t, sink.Send(context.Background(), e))
	assert.False(t, looked)
}
