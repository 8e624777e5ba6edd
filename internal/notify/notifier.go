// Package notify posts formatted channel notifications to the downstream
// webhook target.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Payload is the webhook notification body.
type Payload struct {
	EventName string `json:"event_name"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	Username  string `json:"username"`
}

// Identity constants carried on every outbound notification.
const (
	EventName = "Code Error Monitor Agent"
	Username  = "Code Error Agent"

	userAgent = "Code Error Agent/1.0.0"
)

// Notifier sends a notification to a channel-scoped endpoint. The contract
// is boolean: any transport error or non-2xx response is logged and reported
// as false, never raised across the boundary.
type Notifier interface {
	Notify(ctx context.Context, channelID string, p Payload) bool
}

// WebhookNotifier implements Notifier with a single HTTP POST per call.
type WebhookNotifier struct {
	baseURL string
	client  *http.Client
}

// NewWebhookNotifier creates a notifier posting to {baseURL}/{channelID}.
// The timeout bounds every delivery attempt so a hung webhook cannot stall
// the broker.
func NewWebhookNotifier(baseURL string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, channelID string, p Payload) bool {
	body, err := json.Marshal(p)
	if err != nil {
		slog.Error("encoding webhook payload", "channel_id", channelID, "error", err)
		return false
	}

	u := fmt.Sprintf("%s/%s", n.baseURL, url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		slog.Error("building webhook request", "channel_id", channelID, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Error("webhook unreachable", "channel_id", channelID, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("webhook rejected notification", "channel_id", channelID, "status", resp.StatusCode)
		return false
	}
	return true
}

// Compile-time check that WebhookNotifier implements Notifier.
var _ Notifier = (*WebhookNotifier)(nil)
