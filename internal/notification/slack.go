package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier sends best-effort operational notifications. Implementations
// never surface an error to the caller.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// SlackNotifier posts messages to a Slack incoming webhook. Delivery is
// best-effort: failures are logged and swallowed so a broken webhook can
// never fail a run.
type SlackNotifier struct {
	webhookURL string
	http       *http.Client
	logger     *zap.Logger
}

// NewSlackNotifier creates a new SlackNotifier
func NewSlackNotifier(webhookURL string, timeout time.Duration, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Notify sends a text message to the configured webhook.
func (n *SlackNotifier) Notify(ctx context.Context, message string) {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		n.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("Failed to build notification request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		n.logger.Error("Failed to send notification", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Error("Notification rejected", zap.Int("status", resp.StatusCode))
		return
	}

	n.logger.Info("Notification sent", zap.String("message", message))
}

var _ Notifier = (*SlackNotifier)(nil)
