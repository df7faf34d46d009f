// Package reminder defines the de-duplication store for schedule reminders.
package reminder

import (
	"context"
	"time"
)

// Kind identifies one reminder per employee per day.
type Kind string

const (
	KindShiftStart Kind = "shift_start"
	KindLunchEnd   Kind = "lunch_end"
)

// Store remembers which reminders were already sent. Dates are compared by calendar day.
type Store interface {
	WasSent(ctx context.Context, employeeID string, kind Kind, date time.Time) (bool, error)
	MarkSent(ctx context.Context, employeeID string, kind Kind, date time.Time) error
}
