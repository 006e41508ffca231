package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Govind-619/RentSphere/models"
	"github.com/google/uuid"
)

// PlaceholderSignatureHeader carries the hex HMAC-SHA256 of a placeholder webhook body
const PlaceholderSignatureHeader = "X-Webhook-Signature"

// PlaceholderPrefix marks provider references that no real gateway issued
const PlaceholderPrefix = "placeholder_"

// NewPlaceholderRef returns a fresh placeholder reference
func NewPlaceholderRef() string {
	return PlaceholderPrefix + uuid.NewString()
}

// Placeholder stands in for a gateway without credentials. Intents get placeholder
// references and webhooks are signed with a shared secret, which lets the whole
// payment flow run locally.
type Placeholder struct {
	name   models.PaymentProvider
	secret string
}

// NewPlaceholder creates a stand-in registered under the given provider name
func NewPlaceholder(name models.PaymentProvider, secret string) *Placeholder {
	return &Placeholder{name: name, secret: secret}
}

func (p *Placeholder) Name() models.PaymentProvider { return p.name }

func (p *Placeholder) SignatureHeader() string { return PlaceholderSignatureHeader }

func (p *Placeholder) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := NewPlaceholderRef()
	return &Intent{ID: ref, ClientToken: ref}, nil
}

// PlaceholderEvent is the body of a placeholder webhook
type PlaceholderEvent struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
}

// Placeholder event types
const (
	PlaceholderPaymentSucceeded = "payment.succeeded"
	PlaceholderPaymentFailed    = "payment.failed"
)

func (p *Placeholder) VerifyWebhook(body []byte, signature string) (*WebhookEvent, error) {
	if !validHMAC(body, signature, p.secret) {
		return nil, ErrSignatureInvalid
	}

	var payload PlaceholderEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	event := &WebhookEvent{Kind: EventIgnored, Type: payload.Type, Reference: payload.Reference}
	switch payload.Type {
	case PlaceholderPaymentSucceeded:
		event.Kind = EventSucceeded
	case PlaceholderPaymentFailed:
		event.Kind = EventFailed
	default:
		return event, nil
	}
	if payload.Reference == "" {
		return nil, fmt.Errorf("%w: %s event without reference", ErrMalformedEvent, payload.Type)
	}
	return event, nil
}

// SignBody returns the hex HMAC-SHA256 of body under secret
func SignBody(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func validHMAC(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(SignBody(body, secret)), []byte(signature))
}
