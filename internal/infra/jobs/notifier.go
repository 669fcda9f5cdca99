package jobs

import (
	"context"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
)

// Notifier implements the billing service's expiry notifier by enqueueing
// notification jobs. Delivery happens on the worker so the sweep never
// blocks on SMTP.
type Notifier struct {
	client *Client
}

// NewNotifier creates a job-backed expiry notifier.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// NotifyExpiryWarning enqueues a staged expiry notice.
func (n *Notifier) NotifyExpiryWarning(ctx context.Context, orgID shared.ID, warning subscription.Warning) error {
	return n.client.EnqueueExpiryWarning(ctx, ExpiryWarningPayload{
		OrganizationID: orgID.String(),
		Severity:       warning.Severity,
		Title:          warning.Title,
		Message:        warning.Message,
	})
}

// NotifySuspended enqueues a suspension notice.
func (n *Notifier) NotifySuspended(ctx context.Context, orgID shared.ID) error {
	return n.client.EnqueueSuspended(ctx, SuspendedPayload{
		OrganizationID: orgID.String(),
	})
}
