package share

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier delivers share links by email via the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

// NewResendNotifier creates a new ResendNotifier with the given API key
// and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use notifier
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// SendLink emails the gallery link to the recipient.
// PRE: req.To and req.ShareURL are non-empty
// POST: Email is queued for delivery; returns the Resend message ID
func (n *ResendNotifier) SendLink(ctx context.Context, req LinkRequest) (LinkResult, error) {
	subject := "Your photos are ready"
	if req.EventRef != "" {
		subject = fmt.Sprintf("Your photos from %s are ready", req.EventRef)
	}
	url := html.EscapeString(req.ShareURL)
	body := fmt.Sprintf(
		`<p>Thanks for stopping by the photo booth!</p><p>Your photos are ready: <a href="%s">%s</a></p>`,
		url, url,
	)

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{req.To},
		Subject: subject,
		Html:    body,
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", req.To, "subject", subject)
		return LinkResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", req.To, "subject", subject)
	return LinkResult{
		MessageID: sent.Id,
		SentAt:    time.Now(),
	}, nil
}
