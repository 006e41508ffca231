package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Govind-619/RentSphere/utils"
	"github.com/sony/gobreaker"
)

// WebhookSink POSTs events as JSON to a fixed URL. Consecutive failures open a
// circuit breaker so a dead endpoint is not hammered on every booking.
type WebhookSink struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewWebhookSink creates a sink posting to url
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{
		url:    url,
		client: client,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "notify-webhook",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				utils.LogWarn("Circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, err = s.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("webhook responded %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
