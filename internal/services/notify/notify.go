// Package notify delivers operator notifications raised by the alert engine.
// Delivery is best-effort: a failed dispatch is logged and dropped, never
// surfaced to the request path.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/solara-ai/inference-router/internal/services/alerts"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const defaultWebhookTimeout = 10 * time.Second

// LogNotifier writes notifications to the process log. It is the default
// notifier when no webhook is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(_ context.Context, notification alerts.Notification) error {
	fiberlog.Warnf("🔔 [%s] %s: %s (recipients: %v)",
		notification.Severity, notification.Title, notification.Message, notification.Recipients)
	return nil
}

// WebhookNotifier POSTs notifications as JSON to a configured endpoint
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier with a pooled HTTP client
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification alerts.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("error marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("error creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(len(payload))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("error delivering notification: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fiberlog.Errorf("Error closing webhook response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases idle webhook connections
func (n *WebhookNotifier) Close() {
	if transport, ok := n.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
