package notification

import (
	"context"
)

// Notifier is what background jobs need to send a reminder.
type Notifier interface {
	// QueueNotification hands the reminder to the background workers
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error
}

type Service interface {
	Notifier

	GetNotifications(ctx context.Context, employeeID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, employeeID string) (int, error)
	MarkAsRead(ctx context.Context, employeeID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, employeeID string) error

	// Stop flushes pending batches and waits for the workers
	Stop()
}
