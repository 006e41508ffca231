package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/notify"
	"github.com/Govind-619/RentSphere/payments"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/utils"
	"go.opentelemetry.io/otel/trace"
)

// maxWebhookAttempts bounds retries of a webhook transaction aborted by a concurrent writer
const maxWebhookAttempts = 3

// WebhookOutcome says what applying a webhook event did
type WebhookOutcome string

const (
	OutcomeApplied          WebhookOutcome = "APPLIED"
	OutcomeDuplicate        WebhookOutcome = "DUPLICATE"
	OutcomeStale            WebhookOutcome = "STALE"
	OutcomeUnknownReference WebhookOutcome = "UNKNOWN_REFERENCE"
	OutcomeIgnored          WebhookOutcome = "IGNORED"
)

// PaymentIntentResult is returned to the guest to complete payment with the provider
type PaymentIntentResult struct {
	PaymentID         string                 `json:"payment_id"`
	BookingID         string                 `json:"booking_id"`
	Provider          models.PaymentProvider `json:"provider"`
	ProviderPaymentID string                 `json:"provider_payment_id"`
	ProviderToken     string                 `json:"provider_token"`
	Amount            int64                  `json:"amount"`
	Currency          string                 `json:"currency"`
	Placeholder       bool                   `json:"placeholder"`
}

// PaymentConfig holds the settings PaymentService needs
type PaymentConfig struct {
	DefaultProvider models.PaymentProvider
	Currency        string
}

// PaymentService reconciles bookings with provider payments
type PaymentService struct {
	store     store.Store
	providers payments.Registry
	notifier  notify.Dispatcher
	cfg       PaymentConfig
}

// NewPaymentService wires the payment engine. A nil notifier discards events.
func NewPaymentService(s store.Store, providers payments.Registry, notifier notify.Dispatcher, cfg PaymentConfig) *PaymentService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = models.ProviderStripe
	}
	return &PaymentService{store: s, providers: providers, notifier: notifier, cfg: cfg}
}

// InitiatePayment opens a payment for a PENDING booking. The provider is called outside
// any transaction; if it fails the payment keeps a placeholder reference and the call
// still succeeds. Re-initiating replaces the reference on the booking's single payment row.
func (s *PaymentService) InitiatePayment(ctx context.Context, actor Actor, bookingID string, provider models.PaymentProvider) (*PaymentIntentResult, error) {
	ctx, span := startSpan(ctx, "payment.initiate")
	defer span.End()

	if provider == "" {
		provider = s.cfg.DefaultProvider
	}
	provider = models.PaymentProvider(strings.ToUpper(string(provider)))
	client, ok := s.providers.Get(provider)
	if !provider.Valid() || !ok {
		return nil, ErrUnsupportedProvider
	}

	var booking *models.Booking
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		b, err := s.checkPayable(tx, actor, bookingID)
		booking = b
		return err
	})
	if err != nil {
		return nil, s.paymentFailure(span, bookingID, err)
	}

	ref, token, placeholder := s.requestIntent(ctx, client, booking)

	var payment *models.Payment
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		b, err := s.checkPayable(tx, actor, bookingID)
		if err != nil {
			return err
		}
		payment, err = tx.UpsertPayment(&models.Payment{
			BookingID:         b.ID,
			Provider:          provider,
			ProviderPaymentID: ref,
			Status:            models.PaymentStatusPending,
			Amount:            b.TotalAmount,
			Currency:          s.cfg.Currency,
			IsPlaceholder:     placeholder,
		})
		return err
	})
	if err != nil {
		return nil, s.paymentFailure(span, bookingID, err)
	}

	utils.LogInfo("Payment %s initiated for booking %s via %s (ref %s, placeholder %t)",
		payment.ID, bookingID, provider, ref, placeholder)
	return &PaymentIntentResult{
		PaymentID:         payment.ID,
		BookingID:         bookingID,
		Provider:          provider,
		ProviderPaymentID: ref,
		ProviderToken:     token,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		Placeholder:       placeholder,
	}, nil
}

// checkPayable locks the booking and checks, in order: existence, ownership, PENDING
// status and the absence of a successful payment.
func (s *PaymentService) checkPayable(tx store.Tx, actor Actor, bookingID string) (*models.Booking, error) {
	b, err := tx.LockBooking(bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if b.Status != models.BookingStatusPending {
		return nil, ErrInvalidState
	}
	existing, err := tx.FindPaymentByBooking(bookingID)
	switch {
	case err == nil:
		if existing.Status == models.PaymentStatusSuccess {
			return nil, ErrAlreadyPaid
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return b, nil
}

func (s *PaymentService) requestIntent(ctx context.Context, client payments.Provider, b *models.Booking) (ref, token string, placeholder bool) {
	intent, err := client.CreatePaymentIntent(ctx, payments.IntentRequest{
		BookingID: b.ID,
		UserID:    b.UserID,
		Amount:    b.TotalAmount,
		Currency:  s.cfg.Currency,
	})
	if err != nil {
		err = utils.ProviderError("payment intent failed", err)
		ref = payments.NewPlaceholderRef()
		utils.LogWarn("Payment provider %s unavailable for booking %s, using %s: %v", client.Name(), b.ID, ref, err)
		return ref, ref, true
	}
	return intent.ID, intent.ClientToken, strings.HasPrefix(intent.ID, payments.PlaceholderPrefix)
}

func (s *PaymentService) paymentFailure(span trace.Span, bookingID string, err error) error {
	if !utils.IsAppError(err) {
		utils.LogError("Failed to initiate payment for booking %s: %v", bookingID, err)
		err = utils.InternalError("Failed to initiate payment", err)
	}
	recordError(span, err)
	return err
}

// ApplyWebhookEvent verifies and applies a provider webhook exactly once. Redeliveries and
// out-of-order events never move a payment or booking backwards.
func (s *PaymentService) ApplyWebhookEvent(ctx context.Context, provider models.PaymentProvider, rawBody []byte, signature string) (WebhookOutcome, error) {
	ctx, span := startSpan(ctx, "payment.apply_webhook")
	defer span.End()

	provider = models.PaymentProvider(strings.ToUpper(string(provider)))
	client, ok := s.providers.Get(provider)
	if !ok {
		return "", ErrUnsupportedProvider
	}

	event, err := client.VerifyWebhook(rawBody, signature)
	if err != nil {
		if errors.Is(err, payments.ErrSignatureInvalid) {
			utils.LogWarn("Rejected %s webhook: invalid signature", provider)
			recordError(span, err)
			return "", ErrSignatureInvalid
		}
		utils.LogWarn("Ignoring verified %s webhook: %v", provider, err)
		return OutcomeIgnored, nil
	}
	if event.Kind == payments.EventIgnored {
		utils.LogDebug("Ignoring %s webhook event %s", provider, event.Type)
		return OutcomeIgnored, nil
	}

	var (
		outcome WebhookOutcome
		paid    *models.Booking
	)
	for attempt := 1; attempt <= maxWebhookAttempts; attempt++ {
		outcome, paid, err = s.applyEvent(context.WithoutCancel(ctx), provider, event)
		if err == nil || !store.IsRetryable(err) {
			break
		}
		utils.LogWarn("Webhook %s %s for %s aborted by a concurrent writer (attempt %d/%d): %v",
			provider, event.Type, event.Reference, attempt, maxWebhookAttempts, err)
	}
	if err != nil {
		utils.LogError("Failed to apply %s webhook %s for %s: %v", provider, event.Type, event.Reference, err)
		recordError(span, err)
		return "", utils.InternalError("Failed to apply webhook event", err)
	}

	utils.LogInfo("Webhook %s %s for %s: %s", provider, event.Type, event.Reference, outcome)
	if paid != nil {
		s.notifier.Notify(ctx, bookingEvent(notify.EventBookingPaid, paid))
	}
	return outcome, nil
}

// applyEvent runs one webhook transaction. The booking row is locked before the payment
// row, the same order InitiatePayment uses.
func (s *PaymentService) applyEvent(ctx context.Context, provider models.PaymentProvider, event *payments.WebhookEvent) (WebhookOutcome, *models.Booking, error) {
	var (
		outcome WebhookOutcome
		paid    *models.Booking
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		found, err := tx.FindPaymentByProviderRef(provider, event.Reference)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				outcome = OutcomeUnknownReference
				return nil
			}
			return err
		}

		booking, err := tx.LockBooking(found.BookingID)
		if err != nil {
			return err
		}
		payment, err := tx.LockPayment(found.ID)
		if err != nil {
			return err
		}
		// A re-initiation may have replaced the reference before the locks were taken
		if payment.Provider != provider || payment.ProviderPaymentID != event.Reference {
			outcome = OutcomeUnknownReference
			return nil
		}

		switch event.Kind {
		case payments.EventSucceeded:
			outcome, paid, err = s.settle(tx, payment, booking)
		case payments.EventFailed:
			outcome, err = s.fail(tx, payment)
		}
		return err
	})
	return outcome, paid, err
}

// settle applies a success event to a payment and its locked booking. It returns the
// booking when it newly became PAID.
func (s *PaymentService) settle(tx store.Tx, payment *models.Payment, booking *models.Booking) (WebhookOutcome, *models.Booking, error) {
	// REFUNDED is terminal, so only PENDING and FAILED payments can still succeed
	changed, err := tx.UpdatePaymentStatus(payment.ID, models.PaymentStatusSuccess,
		models.PaymentStatusPending, models.PaymentStatusFailed)
	if err != nil {
		return "", nil, err
	}
	if !changed {
		return OutcomeDuplicate, nil, nil
	}

	switch {
	case CanTransition(booking.Status, models.BookingStatusPaid, TriggerPaymentSucceeded):
		moved, err := tx.UpdateBookingStatus(booking.ID, booking.Status, models.BookingStatusPaid)
		if err != nil {
			return "", nil, err
		}
		if moved {
			paid, err := tx.FindBooking(booking.ID)
			if err != nil {
				return "", nil, err
			}
			return OutcomeApplied, paid, nil
		}
	case booking.Status == models.BookingStatusCancelled:
		if err := tx.FlagRefund(booking.ID); err != nil {
			return "", nil, err
		}
		utils.LogWarn("Payment %s succeeded for cancelled booking %s; refund required", payment.ID, booking.ID)
	}
	return OutcomeApplied, nil, nil
}

func (s *PaymentService) fail(tx store.Tx, payment *models.Payment) (WebhookOutcome, error) {
	changed, err := tx.UpdatePaymentStatus(payment.ID, models.PaymentStatusFailed, models.PaymentStatusPending)
	if err != nil {
		return "", err
	}
	if !changed {
		return OutcomeStale, nil
	}
	return OutcomeApplied, nil
}
