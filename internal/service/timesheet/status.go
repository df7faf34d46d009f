package timesheet

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
)

// Deviation flags a timing anomaly of the punch just recorded.
type Deviation string

const (
	DeviationNone        Deviation = "none"
	DeviationLateArrival Deviation = "late_arrival"
	DeviationOvertime    Deviation = "overtime"
	DeviationOffDay      Deviation = "off_day"
)

// InitialStatus is the status of an employee with no punches today.
const InitialStatus = employee.StatusInactive

// Grace holds the tolerances before an arrival is late or a departure is overtime.
type Grace struct {
	Late     time.Duration
	Overtime time.Duration
}

var DefaultGrace = Grace{Late: 5 * time.Minute, Overtime: 10 * time.Minute}

// NextStatus maps the punch just recorded to the employee's new live status.
// An off-day expectation overrides everything else.
func NextStatus(t punch.Type, at time.Time, exp Expectation, grace Grace) (employee.LiveStatus, Deviation) {
	if exp.IsOffDay {
		return employee.StatusOff, DeviationOffDay
	}

	switch t {
	case punch.TypeArrival:
		if exp.Start != nil && at.Sub(*exp.Start) > grace.Late {
			return employee.StatusLate, DeviationLateArrival
		}
		return employee.StatusActive, DeviationNone
	case punch.TypeLunchOut:
		return employee.StatusLunch, DeviationNone
	case punch.TypeLunchReturn:
		return employee.StatusActive, DeviationNone
	case punch.TypeDeparture:
		if exp.End != nil && at.Sub(*exp.End) > grace.Overtime {
			return employee.StatusOvertime, DeviationOvertime
		}
		return employee.StatusInactive, DeviationNone
	case punch.TypeOffDay:
		return employee.StatusOff, DeviationOffDay
	case punch.TypeLate:
		return employee.StatusLate, DeviationLateArrival
	default:
		return InitialStatus, DeviationNone
	}
}
