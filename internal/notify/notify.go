// Package notify delivers household notifications (new period, hot task
// done) to an external relay such as a WhatsApp bridge.
//
// Delivery is best-effort: a failed notification is reported in the Result
// and logged by the caller, but never blocks period or analytics operations.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 2 * time.Second

// Result is the outcome of one delivery.
type Result struct {
	Success bool
	// ID is the relay's message id, when it returns one.
	ID  string
	Err error
}

// Notifier accepts a title (usually a task name) and a free-text body.
type Notifier interface {
	Notify(ctx context.Context, title, body string) Result
}

// Nop discards every notification and reports success.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, string) Result {
	return Result{Success: true}
}

// Payload is the JSON body posted to the relay.
type Payload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Household string `json:"household,omitempty"`
	SentAt    string `json:"sent_at"`
}

type relayResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Webhook posts notifications as JSON to a relay endpoint.
type Webhook struct {
	endpoint  string
	household string
	client    *http.Client
	now       func() time.Time
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// WithHousehold tags every payload with a household id.
func WithHousehold(id string) WebhookOption {
	return func(w *Webhook) { w.household = id }
}

// NewWebhook returns a Webhook posting to endpoint.
func NewWebhook(endpoint string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify implements Notifier. Non-2xx responses are failures; the relay's
// error text is surfaced when present.
func (w *Webhook) Notify(ctx context.Context, title, body string) Result {
	if w.endpoint == "" {
		return Result{Err: errors.New("no notification endpoint configured")}
	}
	payload, err := json.Marshal(Payload{
		Title:     title,
		Body:      body,
		Household: w.household,
		SentAt:    w.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Result{Err: fmt.Errorf("encoding notification: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("sending notification: %w", err)}
	}
	defer resp.Body.Close()

	var rr relayResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &rr)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := rr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Result{Err: fmt.Errorf("relay returned %d: %s", resp.StatusCode, msg)}
	}
	return Result{Success: true, ID: rr.ID}
}
