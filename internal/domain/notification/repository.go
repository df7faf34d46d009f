package notification

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
	ListByEmployee(ctx context.Context, employeeID string, page, pageSize int, unreadOnly bool) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, employeeID string) (int, error)
	MarkAsRead(ctx context.Context, ids []string, employeeID string) error
	MarkAllAsRead(ctx context.Context, employeeID string) error
}
