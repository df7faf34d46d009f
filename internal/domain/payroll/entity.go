package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is the monthly payslip of one employee. Every aggregate field is recomputed
// from the punches of the month on each run; nothing is merged incrementally.
type Period struct {
	ID                  string
	EmployeeID          string
	PeriodStart         time.Time // first day of the month
	PeriodEnd           time.Time // last day of the month
	HourlyRate          decimal.Decimal
	FixedDeductions     decimal.Decimal
	TotalHours          float64
	TotalOvertimeHours  float64
	TotalShortfallHours float64
	NetPay              decimal.Decimal
	Days                []DayDetail
	UpdatedAt           time.Time
}

// DayDetail is one day of the breakdown, persisted as JSON.
type DayDetail struct {
	Date           string     `json:"date"` // YYYY-MM-DD
	Arrival        *time.Time `json:"arrival,omitempty"`
	LunchOut       *time.Time `json:"lunch_out,omitempty"`
	LunchReturn    *time.Time `json:"lunch_return,omitempty"`
	Departure      *time.Time `json:"departure,omitempty"`
	HoursWorked    float64    `json:"hours_worked"`
	ExpectedHours  *float64   `json:"expected_hours,omitempty"`
	OvertimeHours  float64    `json:"overtime_hours"`
	ShortfallHours float64    `json:"shortfall_hours"`
	IsOffDay       bool       `json:"is_off_day"`
}

// MonthBounds returns the first and last calendar day of the month containing date.
// Both are midnight UTC so they compare equal to stored DATE columns.
func MonthBounds(date time.Time) (start, end time.Time, err error) {
	if date.IsZero() {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	start = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end, nil
}
