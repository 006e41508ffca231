package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Govind-619/RentSphere/models"
	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpaySignatureHeader carries the hex HMAC-SHA256 of the webhook body
const RazorpaySignatureHeader = "X-Razorpay-Signature"

// Razorpay creates orders and verifies webhooks. The order id is the provider reference.
type Razorpay struct {
	client        *razorpay.Client
	webhookSecret string
}

// NewRazorpay creates a Razorpay client
func NewRazorpay(keyID, keySecret, webhookSecret string) *Razorpay {
	return &Razorpay{
		client:        razorpay.NewClient(keyID, keySecret),
		webhookSecret: webhookSecret,
	}
}

func (r *Razorpay) Name() models.PaymentProvider { return models.ProviderRazorpay }

func (r *Razorpay) SignatureHeader() string { return RazorpaySignatureHeader }

// CreatePaymentIntent creates a Razorpay order. The SDK takes no context, so the call
// runs in a goroutine and is abandoned when ctx ends.
func (r *Razorpay) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	orderData := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         "booking_rcpt_" + req.BookingID,
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"booking_id": req.BookingID,
			"user_id":    req.UserID,
		},
	}

	type result struct {
		order map[string]interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		order, err := r.client.Order.Create(orderData, nil)
		done <- result{order: order, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay order: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay order: %w", res.err)
		}
		id, _ := res.order["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("razorpay order: response without id")
		}
		return &Intent{ID: id, ClientToken: id}, nil
	}
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// VerifyWebhook checks X-Razorpay-Signature and maps payment.captured and order.paid to
// success and payment.failed to failure.
func (r *Razorpay) VerifyWebhook(body []byte, signature string) (*WebhookEvent, error) {
	if !validHMAC(body, signature, r.webhookSecret) {
		return nil, ErrSignatureInvalid
	}

	var payload razorpayWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	event := &WebhookEvent{Kind: EventIgnored, Type: payload.Event}
	switch payload.Event {
	case "payment.captured":
		event.Kind = EventSucceeded
	case "order.paid":
		event.Kind = EventSucceeded
		if payload.Payload.Order != nil {
			event.Reference = payload.Payload.Order.Entity.ID
		}
	case "payment.failed":
		event.Kind = EventFailed
	default:
		return event, nil
	}
	if event.Reference == "" && payload.Payload.Payment != nil {
		event.Reference = payload.Payload.Payment.Entity.OrderID
	}
	if event.Reference == "" {
		return nil, fmt.Errorf("%w: %s event without order id", ErrMalformedEvent, payload.Event)
	}
	return event, nil
}
