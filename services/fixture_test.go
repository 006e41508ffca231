package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/notify"
	"github.com/Govind-619/RentSphere/payments"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/store/storetest"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

var testNow = storetest.Day(2030, 1, 1)

// fakeProvider issues predictable references and verifies webhooks like the placeholder
type fakeProvider struct {
	*payments.Placeholder

	mu    sync.Mutex
	err   error
	calls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{Placeholder: payments.NewPlaceholder(models.ProviderStripe, testWebhookSecret)}
}

func (f *fakeProvider) CreatePaymentIntent(ctx context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ref := fmt.Sprintf("pi_test_%d", f.calls)
	return &payments.Intent{ID: ref, ClientToken: ref + "_secret"}, nil
}

func (f *fakeProvider) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// recorder keeps every dispatched event
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]notify.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *recorder) last() notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	db       *gorm.DB
	store    *store.GormStore
	bookings *BookingService
	payments *PaymentService
	provider *fakeProvider
	events   *recorder

	owner   *models.User
	guest   *models.User
	admin   *models.User
	listing *models.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, st := storetest.Open(t)
	f := &fixture{
		db:       db,
		store:    st,
		provider: newFakeProvider(),
		events:   &recorder{},
	}
	f.bookings = NewBookingService(st, NewAvailabilityChecker(st), f.events, WithClock(func() time.Time { return testNow }))
	f.payments = NewPaymentService(st, payments.NewRegistry(f.provider), f.events, PaymentConfig{})

	f.owner = storetest.User(t, db, models.RoleOwner)
	f.guest = storetest.User(t, db, models.RoleConsumer)
	f.admin = storetest.User(t, db, models.RoleAdmin)
	f.listing = storetest.Listing(t, db, f.owner.ID, 1000)
	return f
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) book(t *testing.T, startDay, endDay int) *models.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), CreateBookingInput{
		ListingID: f.listing.ID,
		UserID:    f.guest.ID,
		StartDate: storetest.Day(2030, 1, startDay),
		EndDate:   storetest.Day(2030, 1, endDay),
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) initiate(t *testing.T, bookingID string) *PaymentIntentResult {
	t.Helper()
	result, err := f.payments.InitiatePayment(context.Background(), actorOf(f.guest), bookingID, "")
	require.NoError(t, err)
	return result
}

func (f *fixture) webhook(t *testing.T, eventType, ref string) (WebhookOutcome, error) {
	t.Helper()
	body, sig := signedEvent(t, eventType, ref)
	return f.payments.ApplyWebhookEvent(context.Background(), models.ProviderStripe, body, sig)
}

// signedEvent builds a webhook body and its signature for the test provider
func signedEvent(t *testing.T, eventType, ref string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(payments.PlaceholderEvent{Type: eventType, Reference: ref})
	require.NoError(t, err)
	return body, payments.SignBody(body, testWebhookSecret)
}

func (f *fixture) reload(t *testing.T, bookingID string) *models.Booking {
	t.Helper()
	b, err := f.store.GetBookingDetails(context.Background(), bookingID)
	require.NoError(t, err)
	return b
}

func (f *fixture) payment(t *testing.T, bookingID string) *models.Payment {
	t.Helper()
	var p models.Payment
	require.NoError(t, f.db.First(&p, "booking_id = ?", bookingID).Error)
	return &p
}

func (f *fixture) countBookings(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Booking{}).Count(&n).Error)
	return n
}
