package notification

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// ============= Request DTOs =============

// CreateNotificationRequest is queued by background jobs
type CreateNotificationRequest struct {
	EmployeeID string
	Type       NotificationType
	Title      string
	Body       string
}

// MarkAsReadRequest represents a request to mark notifications as read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1,dive,required"`
}

func (r *MarkAsReadRequest) Validate() error {
	return validator.Struct(r)
}

// ============= Response DTOs =============

type NotificationResponse struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	IsRead    bool             `json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationListResponse represents a paginated list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// StreamTokenResponse carries the short-lived token for GET /stream
type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
