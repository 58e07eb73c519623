package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookEvent is the JSON body posted to the configured notification
// webhook (chat integration, ops channel, etc.). Delivery is best-effort:
// the caller catches and logs failures, they never propagate into the
// request workflow.
type WebhookEvent struct {
	Event       string      `json:"event"`
	ActorID     string      `json:"actor_id"`
	SubjectID   string      `json:"subject_id"`
	RecipientID string      `json:"recipient_id"`
	Payload     interface{} `json:"payload,omitempty"`
	SentAt      string      `json:"sent_at"` // ISO 8601
}

// WebhookClient posts notification events to an external receiver.
// Failures of that receiver are isolated from the core via the circuit
// breaker that wraps every call site.
type WebhookClient struct {
	url        string
	httpClient *http.Client
}

func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a webhook URL is set; an empty URL disables
// webhook delivery entirely (email-only installations).
func (c *WebhookClient) Configured() bool { return c.url != "" }

// Send posts one event. Non-2xx responses are errors so the circuit breaker
// and retry logic see them as failures.
func (c *WebhookClient) Send(ctx context.Context, event WebhookEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: receiver returned %d", resp.StatusCode)
	}
	return nil
}
