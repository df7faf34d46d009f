package payroll

import (
	"context"
	"time"
)

type PeriodRepository interface {
	// GetByEmployeePeriod returns ErrPeriodNotFound when the period has not been created yet
	GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (Period, error)

	// Upsert overwrites every aggregate field of the (employee, start, end) row, creating it if needed
	Upsert(ctx context.Context, p Period) (Period, error)

	// LockEmployeePeriod takes a transaction-scoped advisory lock on (employee, start).
	// It must be called inside a transaction.
	LockEmployeePeriod(ctx context.Context, employeeID string, start time.Time) error

	// GetLatestByEmployee returns the most recent period of an employee
	GetLatestByEmployee(ctx context.Context, employeeID string) (Period, error)

	// List returns periods matching the filter, newest first, with the total count
	List(ctx context.Context, filter ListFilter) ([]Period, int64, error)
}
