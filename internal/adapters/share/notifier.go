// Package share delivers the guest's gallery link after a completed
// session. Delivery is always best-effort: the booth never blocks a
// session on it.
package share

import (
	"context"
	"time"
)

// LinkRequest contains the data needed to deliver a share link.
type LinkRequest struct {
	To       string // Recipient email address
	EventRef string // Event the session was shot under
	ShareURL string // Public gallery URL for the composed artifact
}

// LinkResult contains the response from the delivery provider.
type LinkResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Notifier is the interface for delivering share links via an external
// provider.
type Notifier interface {
	SendLink(ctx context.Context, req LinkRequest) (LinkResult, error)
}
