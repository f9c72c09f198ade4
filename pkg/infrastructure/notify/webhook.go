package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/infrastructure/events"
)

// WebhookNotifier POSTs finished run events to an HTTP endpoint.
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier builds a notifier posting to url
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "stockpick").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &WebhookNotifier{httpClient: client, url: url, logger: logger}
}

// webhookPayload is the body posted for each event
type webhookPayload struct {
	Event     string      `json:"event"`
	Stream    string      `json:"stream"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func (n *WebhookNotifier) CanHandle(eventType string) bool {
	return eventType == events.RunCompletedEvent || eventType == events.RunFailedEvent
}

func (n *WebhookNotifier) Handle(ctx context.Context, event events.Event) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(webhookPayload{
			Event:     event.Type(),
			Stream:    event.StreamID(),
			Timestamp: event.Timestamp(),
			Data:      event.Data(),
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: code=%d, body=%s", resp.StatusCode(), resp.String())
	}

	n.logger.Debug("webhook delivered", zap.String("event_type", event.Type()), zap.Int("status", resp.StatusCode()))
	return nil
}
