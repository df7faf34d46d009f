package payroll

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type RecomputeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	// Any date inside the month to recompute
	Date string `json:"date" validate:"required,isodate"`
}

func (r *RecomputeRequest) Validate() error {
	return validator.Struct(r)
}

type UpdateSettingsRequest struct {
	EmployeeID      string           `json:"employee_id" validate:"required"`
	PeriodStart     string           `json:"period_start" validate:"required,isodate"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`
	FixedDeductions *decimal.Decimal `json:"fixed_deductions,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if r.HourlyRate != nil && !r.HourlyRate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: ErrInvalidRate.Error()})
	}
	if r.FixedDeductions != nil && r.FixedDeductions.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "fixed_deductions", Message: ErrInvalidDeductions.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ExportRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
}

func (r *ExportRequest) Validate() error {
	return validator.Struct(r)
}

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Year       *int    `json:"year,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 12
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}
	if f.Year != nil && (*f.Year < 2000 || *f.Year > 2100) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be between 2000 and 2100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type PeriodResponse struct {
	ID                  string          `json:"id"`
	EmployeeID          string          `json:"employee_id"`
	PeriodStart         string          `json:"period_start"`
	PeriodEnd           string          `json:"period_end"`
	HourlyRate          decimal.Decimal `json:"hourly_rate"`
	FixedDeductions     decimal.Decimal `json:"fixed_deductions"`
	TotalHours          float64         `json:"total_hours"`
	TotalOvertimeHours  float64         `json:"total_overtime_hours"`
	TotalShortfallHours float64         `json:"total_shortfall_hours"`
	NetPay              decimal.Decimal `json:"net_pay"`
	Days                []DayDetail     `json:"daily_breakdown"`
	UpdatedAt           string          `json:"updated_at"`
}

func NewPeriodResponse(p Period) PeriodResponse {
	days := p.Days
	if days == nil {
		days = []DayDetail{}
	}
	return PeriodResponse{
		ID:                  p.ID,
		EmployeeID:          p.EmployeeID,
		PeriodStart:         p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:           p.PeriodEnd.Format("2006-01-02"),
		HourlyRate:          p.HourlyRate,
		FixedDeductions:     p.FixedDeductions,
		TotalHours:          p.TotalHours,
		TotalOvertimeHours:  p.TotalOvertimeHours,
		TotalShortfallHours: p.TotalShortfallHours,
		NetPay:              p.NetPay,
		Days:                days,
		UpdatedAt:           p.UpdatedAt.Format(time.RFC3339),
	}
}

type ListPeriodResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Periods    []PeriodResponse `json:"periods"`
}

// ReportResponse is the human-readable summary of a period.
type ReportResponse struct {
	EmployeeID     string          `json:"employee_id"`
	PeriodStart    *string         `json:"period_start,omitempty"`
	PeriodEnd      *string         `json:"period_end,omitempty"`
	HoursWorked    string          `json:"hours_worked"`
	OvertimeHours  string          `json:"overtime_hours"`
	ShortfallHours string          `json:"shortfall_hours"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	NetPay         decimal.Decimal `json:"net_pay"`
	Days           []ReportDay     `json:"days"`
}

type ReportDay struct {
	Date        string `json:"date"`
	HoursWorked string `json:"hours_worked"`
	Overtime    string `json:"overtime"`
	Shortfall   string `json:"shortfall"`
}
