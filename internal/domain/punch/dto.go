package punch

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

// Location holds pointers so that an absent coordinate is told apart from 0.
type Location struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// NewLocation builds a Location from plain coordinates.
func NewLocation(lat, lon float64) *Location {
	return &Location{Latitude: &lat, Longitude: &lon}
}

// Coordinates returns latitude and longitude. Call it only after Validate.
func (l *Location) Coordinates() (float64, float64) {
	return *l.Latitude, *l.Longitude
}

type RecordRequest struct {
	// Filled from the access token, never from the body
	EmployeeID string    `json:"-"`
	Type       string    `json:"type" validate:"required,oneof=arrival lunch_out lunch_return departure off_day late"`
	Location   *Location `json:"location" validate:"required"`
}

// Validate reports MISSING_FIELDS as ValidationErrors.
func (r *RecordRequest) Validate() error {
	return validator.Struct(r)
}

type PunchResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	PunchedAt  string  `json:"punched_at"`
	LocalDate  string  `json:"local_date"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func NewPunchResponse(p Punch) PunchResponse {
	return PunchResponse{
		ID:         p.ID,
		EmployeeID: p.EmployeeID,
		Type:       string(p.Type),
		PunchedAt:  p.PunchedAt.Format(time.RFC3339),
		LocalDate:  p.LocalDate.Format("2006-01-02"),
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
	}
}

// RecordResponse is returned for an accepted punch. When the payroll recompute fails the
// punch stays stored, Payroll is nil and PayrollPending is set.
type RecordResponse struct {
	Punch          PunchResponse           `json:"punch"`
	Site           string                  `json:"site"`
	DistanceMeters float64                 `json:"distance_meters"`
	Status         string                  `json:"status"`
	Deviation      string                  `json:"deviation"`
	Payroll        *payroll.PeriodResponse `json:"payroll,omitempty"`
	PayrollPending bool                    `json:"payroll_pending"`
}

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Type       *string `json:"type,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Type != nil && !validator.IsInSlice(*f.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: arrival, lunch_out, lunch_return, departure, off_day, late",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListPunchResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Punches    []PunchResponse `json:"punches"`
}
