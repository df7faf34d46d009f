package punch

import (
	"context"
	"time"
)

type PunchRepository interface {
	// Create stores a punch. Returns ErrDuplicatePunch when the employee already has a punch
	// of the same type on the same local date.
	Create(ctx context.Context, p Punch) (Punch, error)

	// ExistsForDay reports whether a punch of type t exists for the employee on localDate
	ExistsForDay(ctx context.Context, employeeID string, t Type, localDate time.Time) (bool, error)

	// ListByEmployeeDates returns the employee's punches whose local date is in [from, to], oldest first
	ListByEmployeeDates(ctx context.Context, employeeID string, from, to time.Time) ([]Punch, error)

	// List returns punches matching the filter, newest first, with the total count
	List(ctx context.Context, filter ListFilter) ([]Punch, int64, error)
}
