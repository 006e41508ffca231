package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Govind-619/RentSphere/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeSignatureHeader carries Stripe's timestamped webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// Stripe creates PaymentIntents and verifies webhooks. The intent id is the provider reference.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe creates a Stripe client
func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (s *Stripe) Name() models.PaymentProvider { return models.ProviderStripe }

func (s *Stripe) SignatureHeader() string { return StripeSignatureHeader }

func (s *Stripe) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("user_id", req.UserID)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientToken: pi.ClientSecret}, nil
}

// VerifyWebhook checks Stripe-Signature and maps payment_intent.succeeded and
// payment_intent.payment_failed. The API version of the event is not enforced.
func (s *Stripe) VerifyWebhook(body []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(body, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isStripeSignatureError(err) {
			return nil, ErrSignatureInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	result := &WebhookEvent{Kind: EventIgnored, Type: string(event.Type)}
	switch string(event.Type) {
	case "payment_intent.succeeded":
		result.Kind = EventSucceeded
	case "payment_intent.payment_failed":
		result.Kind = EventFailed
	default:
		return result, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: %s event without data", ErrMalformedEvent, event.Type)
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("%w: %s event without payment intent id", ErrMalformedEvent, event.Type)
	}
	result.Reference = intent.ID
	return result, nil
}

func isStripeSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
