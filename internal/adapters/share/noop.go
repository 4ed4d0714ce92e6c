package share

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopNotifier is a no-op link notifier for development and testing.
// It logs sends but does not actually deliver anything.
type NoopNotifier struct{}

// NewNoopNotifier creates a new NoopNotifier.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// SendLink logs the link but does not deliver it.
// PRE: req is a valid LinkRequest
// POST: Returns a noop result without actual delivery
func (n *NoopNotifier) SendLink(_ context.Context, req LinkRequest) (LinkResult, error) {
	slog.Info("noop_share_link", "to", req.To, "share_url", req.ShareURL)
	return LinkResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
