package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/geofence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
)

// Error body codes
const (
	CodeOutOfRange       = "OUT_OF_RANGE"
	CodeMissingFields    = "MISSING_FIELDS"
	CodeEmployeeNotFound = "EMPLOYEE_NOT_FOUND"
	CodeInvalidPeriod    = "INVALID_PERIOD"
	CodeDuplicatePunch   = "DUPLICATE_PUNCH"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var outOfRange *geofence.OutOfRangeError
	if errors.As(err, &outOfRange) {
		Fail(w, http.StatusForbidden, CodeOutOfRange, punch.ErrOutOfRange.Error(), map[string]string{
			"site":            outOfRange.Site,
			"distance_meters": fmt.Sprintf("%.2f", outOfRange.Distance),
			"radius_meters":   fmt.Sprintf("%.0f", outOfRange.Radius),
		})
		return
	}

	switch {
	// Identity
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingEmployeeClaim):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrSupervisorAccessRequired), errors.Is(err, auth.ErrForbiddenForOtherEmployees):
		Forbidden(w, err.Error())

	// Punch
	case errors.Is(err, punch.ErrDuplicatePunch):
		Fail(w, http.StatusConflict, CodeDuplicatePunch, err.Error(), nil)

	// Employee
	case errors.Is(err, employee.ErrEmployeeNotFound):
		Fail(w, http.StatusNotFound, CodeEmployeeNotFound, "Employee not found", nil)
	case errors.Is(err, employee.ErrInvalidStatus):
		BadRequest(w, err.Error(), nil)

	// Payroll
	case errors.Is(err, payroll.ErrInvalidPeriod):
		Fail(w, http.StatusBadRequest, CodeInvalidPeriod, err.Error(), nil)
	case errors.Is(err, payroll.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, payroll.ErrInvalidRate), errors.Is(err, payroll.ErrInvalidDeductions):
		BadRequest(w, err.Error(), nil)

	// Schedule
	case errors.Is(err, schedule.ErrScheduleNotFound):
		NotFound(w, "Week schedule not found")
	case errors.Is(err, schedule.ErrInvalidRRule), errors.Is(err, schedule.ErrEndBeforeStart),
		errors.Is(err, timesheet.ErrInvalidShiftTime):
		BadRequest(w, err.Error(), nil)

	// Notification
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
