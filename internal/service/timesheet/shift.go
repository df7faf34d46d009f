package timesheet

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

var ErrInvalidShiftTime = errors.New("invalid shift time")

// Source tells where an expectation came from.
type Source string

const (
	SourceWeekSchedule Source = "week_schedule"
	SourceLegacy       Source = "legacy"
	SourceNone         Source = "none"
)

// Expectation is the planned window for one day.
type Expectation struct {
	Start    *time.Time
	End      *time.Time
	IsOffDay bool
	Source   Source
}

// ExpectedHours returns End-Start when the day is a regular working day with both bounds.
func (e Expectation) ExpectedHours() (float64, bool) {
	if e.IsOffDay || e.Start == nil || e.End == nil {
		return 0, false
	}
	return roundHours(e.End.Sub(*e.Start).Hours()), true
}

// ResolveShift produces the expectation for the calendar day of date (its year, month and day).
// A ShiftDay of ws wins, then the employee's legacy day-off set, then the legacy fixed times.
func ResolveShift(date time.Time, ws *schedule.WeekSchedule, emp employee.Employee, loc *time.Location) (Expectation, error) {
	if loc == nil {
		loc = time.UTC
	}

	if ws != nil && ws.Covers(date) {
		if day, ok := ws.DayFor(date); ok {
			if day.IsOffDay {
				return Expectation{IsOffDay: true, Source: SourceWeekSchedule}, nil
			}
			return expectationFromClock(date, day.Start, day.End, loc, SourceWeekSchedule)
		}
	}

	if emp.IsDayOff(date.Weekday()) {
		return Expectation{IsOffDay: true, Source: SourceLegacy}, nil
	}

	if emp.LegacyEntryTime != nil || emp.LegacyExitTime != nil {
		return expectationFromClock(date, emp.LegacyEntryTime, emp.LegacyExitTime, loc, SourceLegacy)
	}

	return Expectation{Source: SourceNone}, nil
}

// FindWeek returns the week of weeks that covers date, or nil.
func FindWeek(weeks []schedule.WeekSchedule, date time.Time) *schedule.WeekSchedule {
	for i := range weeks {
		if weeks[i].Covers(date) {
			return &weeks[i]
		}
	}
	return nil
}

func expectationFromClock(date time.Time, start, end *string, loc *time.Location, source Source) (Expectation, error) {
	exp := Expectation{Source: source}

	if start != nil && *start != "" {
		t, err := AtClock(date, *start, loc)
		if err != nil {
			return Expectation{}, err
		}
		exp.Start = &t
	}
	if end != nil && *end != "" {
		t, err := AtClock(date, *end, loc)
		if err != nil {
			return Expectation{}, err
		}
		exp.End = &t
	}
	return exp, nil
}

// AtClock places an "HH:MM" time of day on the calendar day of date in loc.
func AtClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidShiftTime, clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
