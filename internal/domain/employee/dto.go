package employee

import "time"

type LiveStatusResponse struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusChangedEvent is broadcast to live-status subscribers.
type StatusChangedEvent struct {
	EmployeeID string `json:"employee_id"`
	Status     string `json:"status"`
	Deviation  string `json:"deviation,omitempty"`
}
