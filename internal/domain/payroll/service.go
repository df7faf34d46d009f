package payroll

import (
	"context"
	"io"
	"time"
)

// Aggregator recomputes a payroll period from the stored punches.
type Aggregator interface {
	// Recompute rebuilds the period containing at for the employee and persists it
	Recompute(ctx context.Context, employeeID string, at time.Time) (Period, error)
}

type PayrollService interface {
	Aggregator

	// RecomputeMonth is the maintenance entry point (supervisor)
	RecomputeMonth(ctx context.Context, req RecomputeRequest) (PeriodResponse, error)

	// UpdateSettings sets the hourly rate and fixed deductions, then recomputes (supervisor)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (PeriodResponse, error)

	// ListMine returns the authenticated employee's periods
	ListMine(ctx context.Context, filter ListFilter) (ListPeriodResponse, error)

	// ListAll returns every employee's periods (supervisor)
	ListAll(ctx context.Context, filter ListFilter) (ListPeriodResponse, error)

	// Report returns the latest period with totals formatted for display
	Report(ctx context.Context, employeeID string) (ReportResponse, error)

	// ExportXLSX writes the month's daily breakdown as an Excel workbook
	ExportXLSX(ctx context.Context, req ExportRequest, w io.Writer) error
}
