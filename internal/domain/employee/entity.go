package employee

import (
	"time"
)

type Employee struct {
	ID    string
	Name  string
	Email string
	Role  Role

	// Legacy fixed schedule, used when no weekly schedule covers a date.
	// Times are "HH:MM" in the configured time zone.
	LegacyEntryTime *string
	LegacyExitTime  *string
	// Weekdays (0=Sunday ... 6=Saturday) the employee is off without a weekly schedule.
	DaysOff []time.Weekday

	LiveStatus LiveStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsDayOff reports whether the legacy day-off set contains the weekday.
func (e Employee) IsDayOff(day time.Weekday) bool {
	for _, d := range e.DaysOff {
		if d == day {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// LiveStatus is the single "right now" indicator shown for an employee.
type LiveStatus string

const (
	StatusActive   LiveStatus = "Active"
	StatusLunch    LiveStatus = "Lunch"
	StatusLate     LiveStatus = "Late"
	StatusOff      LiveStatus = "Off"
	StatusInactive LiveStatus = "Inactive"
	StatusOvertime LiveStatus = "Overtime"
)

var LiveStatusValues = []string{
	string(StatusActive),
	string(StatusLunch),
	string(StatusLate),
	string(StatusOff),
	string(StatusInactive),
	string(StatusOvertime),
}
