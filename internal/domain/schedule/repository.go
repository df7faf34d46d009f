package schedule

import (
	"context"
	"time"
)

type WeekScheduleRepository interface {
	// GetByID returns ErrScheduleNotFound when no row matches
	GetByID(ctx context.Context, id string) (WeekSchedule, error)

	// GetByEmployeeWeek returns ErrScheduleNotFound when the employee has no plan for that week
	GetByEmployeeWeek(ctx context.Context, employeeID string, weekStart time.Time) (WeekSchedule, error)

	// Upsert stores the schedule keyed by (employee, week start), replacing its days
	Upsert(ctx context.Context, ws WeekSchedule) (WeekSchedule, error)

	// ListByEmployee returns every week of an employee, newest first
	ListByEmployee(ctx context.Context, employeeID string) ([]WeekSchedule, error)

	// ListByEmployeeBetween returns the weeks overlapping [from, to]
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]WeekSchedule, error)

	// ListCovering returns the schedules of all employees whose week contains date
	ListCovering(ctx context.Context, date time.Time) ([]WeekSchedule, error)

	// Delete returns ErrScheduleNotFound when nothing was deleted
	Delete(ctx context.Context, id string) error
}
