// Package notify delivers push notifications to users without a live connection.
package notify

import (
	"altus-chat/contract"
	"altus-chat/domain"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

var (
	_ contract.INotifier = (*LogNotifier)(nil)
	_ contract.INotifier = (*WebhookNotifier)(nil)
)

// LogNotifier only logs notifications. It is the default when no push backend is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	n.log.Info("Push notification",
		"user", notification.UserID,
		"kind", notification.Kind,
		"sender", notification.SenderID,
		"message_id", notification.MessageID)
	return nil
}

const defaultWebhookTimeout = 5 * time.Second

// WebhookNotifier POSTs each notification as JSON to a push gateway.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

func NewWebhookNotifier(url string, client *http.Client, timeout time.Duration) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &WebhookNotifier{url: url, client: client, timeout: timeout}
}

func (n *WebhookNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
