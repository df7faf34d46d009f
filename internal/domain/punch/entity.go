package punch

import "time"

// Type is the kind of clock event recorded by a punch.
type Type string

const (
	TypeArrival     Type = "arrival"
	TypeLunchOut    Type = "lunch_out"
	TypeLunchReturn Type = "lunch_return"
	TypeDeparture   Type = "departure"
	// Manual markers set by the employee.
	TypeOffDay Type = "off_day"
	TypeLate   Type = "late"
)

var TypeValues = []string{
	string(TypeArrival),
	string(TypeLunchOut),
	string(TypeLunchReturn),
	string(TypeDeparture),
	string(TypeOffDay),
	string(TypeLate),
}

// IsWork reports whether the type takes part in the hours calculation.
func (t Type) IsWork() bool {
	switch t {
	case TypeArrival, TypeLunchOut, TypeLunchReturn, TypeDeparture:
		return true
	}
	return false
}

// Punch is immutable once stored.
type Punch struct {
	ID         string
	EmployeeID string
	Type       Type
	PunchedAt  time.Time
	// LocalDate is the calendar day of PunchedAt in the configured time zone (midnight UTC).
	LocalDate time.Time
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}
