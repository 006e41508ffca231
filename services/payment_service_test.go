package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/notify"
	"github.com/Govind-619/RentSphere/payments"
	"github.com/Govind-619/RentSphere/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentLifecycle(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)

	intent := f.initiate(t, b.ID)
	assert.Equal(t, "pi_test_1", intent.ProviderPaymentID)
	assert.Equal(t, "pi_test_1_secret", intent.ProviderToken)
	assert.Equal(t, models.ProviderStripe, intent.Provider)
	assert.EqualValues(t, 2000, intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.False(t, intent.Placeholder)
	assert.Equal(t, models.PaymentStatusPending, f.payment(t, b.ID).Status)

	outcome, err := f.webhook(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.BookingStatusPaid, f.reload(t, b.ID).Status)
	assert.Equal(t, models.PaymentStatusSuccess, f.payment(t, b.ID).Status)
	assert.Equal(t, notify.EventBookingPaid, f.events.last().Type)
	assert.Equal(t, "PAID", f.events.last().Data.Status)

	// Redelivery changes nothing and notifies nobody
	eventsBefore := len(f.events.types())
	outcome, err = f.webhook(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Len(t, f.events.types(), eventsBefore)

	// A late failure never undoes a success
	outcome, err = f.webhook(t, payments.PlaceholderPaymentFailed, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)
	assert.Equal(t, models.BookingStatusPaid, f.reload(t, b.ID).Status)
	assert.Equal(t, models.PaymentStatusSuccess, f.payment(t, b.ID).Status)

	// Paying twice is refused
	_, err = f.payments.InitiatePayment(context.Background(), actorOf(f.guest), b.ID, models.ProviderStripe)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConcurrentDuplicateDeliveriesApplyOnce(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)
	intent := f.initiate(t, b.ID)
	body, sig := signedEvent(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)

	const deliveries = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[WebhookOutcome]int{}
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.payments.ApplyWebhookEvent(context.Background(), models.ProviderStripe, body, sig)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			outcomes[outcome]++
		}()
	}
	wg.Wait()

	assert.Equal(t, map[WebhookOutcome]int{OutcomeApplied: 1, OutcomeDuplicate: deliveries - 1}, outcomes)
	assert.Equal(t, models.BookingStatusPaid, f.reload(t, b.ID).Status)
	assert.Equal(t, models.PaymentStatusSuccess, f.payment(t, b.ID).Status)

	paidEvents := 0
	for _, typ := range f.events.types() {
		if typ == notify.EventBookingPaid {
			paidEvents++
		}
	}
	assert.Equal(t, 1, paidEvents)
}

func TestWebhookFailureThenSuccess(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)
	intent := f.initiate(t, b.ID)

	outcome, err := f.webhook(t, payments.PlaceholderPaymentFailed, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.PaymentStatusFailed, f.payment(t, b.ID).Status)
	assert.Equal(t, models.BookingStatusPending, f.reload(t, b.ID).Status)

	outcome, err = f.webhook(t, payments.PlaceholderPaymentFailed, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)

	outcome, err = f.webhook(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.BookingStatusPaid, f.reload(t, b.ID).Status)
}

func TestWebhookRefundedPaymentIsTerminal(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)
	intent := f.initiate(t, b.ID)
	require.NoError(t, f.db.Model(&models.Payment{}).Where("booking_id = ?", b.ID).
		Update("status", models.PaymentStatusRefunded).Error)

	outcome, err := f.webhook(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	outcome, err = f.webhook(t, payments.PlaceholderPaymentFailed, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)

	assert.Equal(t, models.PaymentStatusRefunded, f.payment(t, b.ID).Status)
	assert.Equal(t, models.BookingStatusPending, f.reload(t, b.ID).Status)
}

func TestWebhookOnCancelledBookingFlagsRefund(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)
	intent := f.initiate(t, b.ID)

	_, err := f.bookings.UpdateBookingStatus(context.Background(), actorOf(f.owner), b.ID, models.BookingStatusCancelled)
	require.NoError(t, err)

	outcome, err := f.webhook(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	reloaded := f.reload(t, b.ID)
	assert.Equal(t, models.BookingStatusCancelled, reloaded.Status)
	assert.True(t, reloaded.RefundRequired)
	assert.Equal(t, models.PaymentStatusSuccess, f.payment(t, b.ID).Status)
	assert.NotContains(t, f.events.types(), notify.EventBookingPaid)
}

func TestWebhookWithoutEffect(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)
	intent := f.initiate(t, b.ID)
	ctx := context.Background()

	t.Run("unknown reference", func(t *testing.T) {
		outcome, err := f.webhook(t, payments.PlaceholderPaymentSucceeded, "pi_unknown")
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnknownReference, outcome)
	})

	t.Run("invalid signature", func(t *testing.T) {
		body := []byte(`{"type":"payment.succeeded","reference":"` + intent.ProviderPaymentID + `"}`)
		_, err := f.payments.ApplyWebhookEvent(ctx, models.ProviderStripe, body, payments.SignBody(body, "wrong-secret"))
		assert.ErrorIs(t, err, ErrSignatureInvalid)

		_, err = f.payments.ApplyWebhookEvent(ctx, models.ProviderStripe, body, "")
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("signed but unreadable", func(t *testing.T) {
		body := []byte(`not json`)
		outcome, err := f.payments.ApplyWebhookEvent(ctx, models.ProviderStripe, body, payments.SignBody(body, testWebhookSecret))
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("irrelevant event type", func(t *testing.T) {
		outcome, err := f.webhook(t, "customer.created", intent.ProviderPaymentID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := f.payments.ApplyWebhookEvent(ctx, models.ProviderRazorpay, []byte(`{}`), "sig")
		assert.ErrorIs(t, err, ErrUnsupportedProvider)
	})

	assert.Equal(t, models.BookingStatusPending, f.reload(t, b.ID).Status)
	assert.Equal(t, models.PaymentStatusPending, f.payment(t, b.ID).Status)
}

func TestInitiatePaymentFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)
	f.provider.failWith(errors.New("gateway timeout"))

	intent := f.initiate(t, b.ID)
	assert.True(t, intent.Placeholder)
	assert.True(t, strings.HasPrefix(intent.ProviderPaymentID, payments.PlaceholderPrefix))
	assert.True(t, f.payment(t, b.ID).IsPlaceholder)

	// A placeholder reference settles like any other
	outcome, err := f.webhook(t, payments.PlaceholderPaymentSucceeded, intent.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, models.BookingStatusPaid, f.reload(t, b.ID).Status)
}

func TestInitiatePaymentReplacesReference(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 10, 12)

	first := f.initiate(t, b.ID)
	second := f.initiate(t, b.ID)
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.NotEqual(t, first.ProviderPaymentID, second.ProviderPaymentID)

	var count int64
	require.NoError(t, f.db.Model(&models.Payment{}).Where("booking_id = ?", b.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	outcome, err := f.webhook(t, payments.PlaceholderPaymentSucceeded, first.ProviderPaymentID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownReference, outcome)
}

func TestInitiatePaymentErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.book(t, 10, 12)
	stranger := storetest.User(t, f.db, models.RoleConsumer)

	cancelled := f.book(t, 20, 22)
	_, err := f.bookings.UpdateBookingStatus(ctx, actorOf(f.owner), cancelled.ID, models.BookingStatusCancelled)
	require.NoError(t, err)

	settled := storetest.Booking(t, f.db, f.listing, f.guest.ID, storetest.Day(2030, 3, 1), storetest.Day(2030, 3, 3), models.BookingStatusPending)
	require.NoError(t, f.db.Create(&models.Payment{
		BookingID:         settled.ID,
		Provider:          models.ProviderStripe,
		ProviderPaymentID: "pi_settled",
		Status:            models.PaymentStatusSuccess,
		Amount:            settled.TotalAmount,
		Currency:          "INR",
	}).Error)

	tests := []struct {
		name     string
		actor    Actor
		booking  string
		provider models.PaymentProvider
		wantErr  error
	}{
		{"unsupported provider", actorOf(f.guest), pending.ID, "PAYPAL", ErrUnsupportedProvider},
		{"missing booking", actorOf(f.guest), "missing", "", ErrBookingNotFound},
		{"someone else's booking", actorOf(stranger), pending.ID, "", ErrForbidden},
		{"ownership checked before state", actorOf(stranger), cancelled.ID, "", ErrForbidden},
		{"cancelled booking", actorOf(f.guest), cancelled.ID, "", ErrInvalidState},
		{"already paid", actorOf(f.guest), settled.ID, "", ErrAlreadyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.payments.InitiatePayment(ctx, tt.actor, tt.booking, tt.provider)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("admin may initiate", func(t *testing.T) {
		result, err := f.payments.InitiatePayment(ctx, actorOf(f.admin), pending.ID, "stripe")
		require.NoError(t, err)
		assert.Equal(t, models.ProviderStripe, result.Provider)
	})
}
