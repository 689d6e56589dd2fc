package wallet

import (
	"context"

	"github.com/paylite/ewallet/internal/models"
)

// Notification sink operations. These carry no balance semantics; they
// are invoked by the request layer for the notifications screen.

// Notifications lists an account's notifications, newest first.
func (e *Engine) Notifications(ctx context.Context, accountID string) ([]models.Notification, error) {
	return e.store.NotificationsByAccount(ctx, accountID)
}

// MarkAllRead flips every unread notification of the account to read.
// Other accounts are untouched.
func (e *Engine) MarkAllRead(ctx context.Context, accountID string) error {
	return e.store.MarkAllRead(ctx, accountID)
}

// DeleteNotification removes a single notification by id.
func (e *Engine) DeleteNotification(ctx context.Context, notificationID string) error {
	return e.store.DeleteNotification(ctx, notificationID)
}

// ClearNotifications removes all notifications of the account.
func (e *Engine) ClearNotifications(ctx context.Context, accountID string) error {
	return e.store.DeleteNotificationsByAccount(ctx, accountID)
}
