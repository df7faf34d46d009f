package payroll

import "errors"

var (
	ErrInvalidPeriod     = errors.New("invalid payroll period")
	ErrPeriodNotFound    = errors.New("payroll period not found")
	ErrInvalidRate       = errors.New("hourly rate must be positive")
	ErrInvalidDeductions = errors.New("fixed deductions must not be negative")
)
