package schedule

import "context"

type ScheduleService interface {
	// UpsertDay sets one day of an employee's week, creating the week if needed (supervisor)
	UpsertDay(ctx context.Context, req UpsertDayRequest) (WeekScheduleResponse, error)

	// ApplyRecurrence fills a whole week from an RRULE (supervisor)
	ApplyRecurrence(ctx context.Context, req ApplyRecurrenceRequest) (WeekScheduleResponse, error)

	// Today resolves the authenticated employee's expected shift for today
	Today(ctx context.Context) (TodayResponse, error)

	// ListMine returns the authenticated employee's weeks
	ListMine(ctx context.Context) ([]WeekScheduleResponse, error)

	// ListByEmployee returns one employee's weeks (supervisor)
	ListByEmployee(ctx context.Context, employeeID string) ([]WeekScheduleResponse, error)

	// Delete removes a whole week (supervisor)
	Delete(ctx context.Context, id string) error
}
