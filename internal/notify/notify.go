// Package notify delivers out-of-band notifications to administrators.
// Delivery is an external concern; the service only depends on the Notifier
// interface and treats failures as log-worthy, never fatal.
package notify

import (
	"context"

	"campreg/internal/admin"
	"campreg/internal/registration/models"
)

// Notifier is called after lifecycle events an administrator cares about.
type Notifier interface {
	// PaymentCheckReceived fires when a card payment check lands for review.
	PaymentCheckReceived(ctx context.Context, reviewer admin.Admin, reg models.Registration) error
}

// Noop drops all notifications. Used when no Telegram token is configured.
type Noop struct{}

func (Noop) PaymentCheckReceived(context.Context, admin.Admin, models.Registration) error {
	return nil
}
