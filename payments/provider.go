// Package payments adapts payment gateways to the booking core: creating payment
// intents and turning signed webhook deliveries into verified settlement events.
package payments

import (
	"context"
	"errors"

	"github.com/Govind-619/RentSphere/models"
)

var (
	// ErrSignatureInvalid means the webhook body was not signed by the provider
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
	// ErrMalformedEvent means a verified body could not be decoded
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// IntentRequest describes the amount to collect for a booking
type IntentRequest struct {
	BookingID string
	UserID    string
	Amount    int64 // smallest currency unit
	Currency  string
}

// Intent is the provider's handle for a payment in progress
type Intent struct {
	// ID is the provider reference webhooks will carry
	ID string
	// ClientToken is handed to the client to complete payment; it may equal ID
	ClientToken string
}

// EventKind classifies a verified webhook event
type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	// EventIgnored is a verified event the booking core does not act on
	EventIgnored EventKind = "ignored"
)

// WebhookEvent is a verified, provider-neutral settlement event
type WebhookEvent struct {
	Kind      EventKind
	Reference string
	// Type is the provider's own event name, kept for logging
	Type string
}

// Provider is a payment gateway
type Provider interface {
	Name() models.PaymentProvider
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// VerifyWebhook verifies signature against the raw body before decoding anything.
	// It returns ErrSignatureInvalid on mismatch and ErrMalformedEvent when a verified
	// body cannot be decoded.
	VerifyWebhook(body []byte, signature string) (*WebhookEvent, error)
	// SignatureHeader is the HTTP header carrying the webhook signature
	SignatureHeader() string
}
