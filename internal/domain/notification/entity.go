package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeShiftStarting NotificationType = "shift_starting"
	TypeLunchEnding   NotificationType = "lunch_ending"
)

// Notification is a reminder addressed to one employee.
type Notification struct {
	ID         string
	EmployeeID string
	Type       NotificationType
	Title      string
	Body       string
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}
