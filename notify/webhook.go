package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EventHeader carries the event type so receivers can route without
// decoding the body.
const EventHeader = "X-Qw-Event"

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// WebhookNotifier posts each event as a JSON document to a generic HTTP
// endpoint, such as a CI hook or an audit log collector.
type WebhookNotifier struct {
	URL string

	// Headers are added to every request, typically Authorization.
	Headers map[string]string
	Client  *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements Notifier. Any status of 400 or above is an error that
// quotes the start of the response body.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "qw")
	req.Header.Set(EventHeader, string(event.Type))
	for k, v := range n.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s event: %w", event.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("webhook rejected %s event: %s: %s", event.Type, resp.Status, msg)
	}
	return fmt.Errorf("webhook rejected %s event: %s", event.Type, resp.Status)
}
