package notification

import (
	"context"
	"fmt"
	"log"
	"time"
)

// WebhookNotifier sends alerts to a generic HTTP webhook endpoint.
type WebhookNotifier struct {
	url    string
	poster *poster
}

// NewWebhookNotifier creates a webhook notifier POSTing to url.
func NewWebhookNotifier(url string, opts PosterOptions) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		poster: newPoster(opts),
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	payload := map[string]interface{}{
		"level":   string(alert.Level),
		"title":   alert.Title,
		"message": alert.Message,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := w.poster.post(ctx, w.url, payload); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	log.Printf("[webhook] sent alert to %s: %s", w.url, alert.Title)
	return nil
}
