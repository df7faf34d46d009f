package schedule

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

type UpsertDayRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Date       string  `json:"date" validate:"required,isodate"`
	Start      *string `json:"start,omitempty" validate:"omitempty,clock"`
	End        *string `json:"end,omitempty" validate:"omitempty,clock"`
	IsOffDay   bool    `json:"is_off_day"`
}

func (r *UpsertDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if err := validator.Struct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if !r.IsOffDay {
		if r.Start == nil || validator.IsEmpty(*r.Start) {
			errs = append(errs, validator.ValidationError{Field: "start", Message: "start is required unless is_off_day is true"})
		}
		if r.End == nil || validator.IsEmpty(*r.End) {
			errs = append(errs, validator.ValidationError{Field: "end", Message: "end is required unless is_off_day is true"})
		}
		if len(errs) == 0 && *r.End <= *r.Start {
			errs = append(errs, validator.ValidationError{Field: "end", Message: ErrEndBeforeStart.Error()})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyRecurrenceRequest plans a week from an RFC 5545 rule such as
// "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR". Matching days get Start/End, the rest are off-days.
type ApplyRecurrenceRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	WeekOf     string `json:"week_of" validate:"required,isodate"`
	RRule      string `json:"rrule" validate:"required"`
	Start      string `json:"start" validate:"required,clock"`
	End        string `json:"end" validate:"required,clock"`
}

func (r *ApplyRecurrenceRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.End <= r.Start {
		return validator.ValidationErrors{{Field: "end", Message: ErrEndBeforeStart.Error()}}
	}
	return nil
}

type WeekScheduleResponse struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	WeekStart  string     `json:"week_start"`
	WeekEnd    string     `json:"week_end"`
	Days       []ShiftDay `json:"days"`
	UpdatedAt  string     `json:"updated_at"`
}

func NewWeekScheduleResponse(ws WeekSchedule) WeekScheduleResponse {
	days := ws.Days
	if days == nil {
		days = []ShiftDay{}
	}
	return WeekScheduleResponse{
		ID:         ws.ID,
		EmployeeID: ws.EmployeeID,
		WeekStart:  ws.WeekStart.Format("2006-01-02"),
		WeekEnd:    ws.WeekEnd.Format("2006-01-02"),
		Days:       days,
		UpdatedAt:  ws.UpdatedAt.Format(time.RFC3339),
	}
}

// TodayResponse is the resolved expectation for the current local day.
type TodayResponse struct {
	Date     string  `json:"date"`
	Start    *string `json:"start,omitempty"`
	End      *string `json:"end,omitempty"`
	IsOffDay bool    `json:"is_off_day"`
	// Source is week_schedule, legacy or none
	Source string `json:"source"`
}
