package schedule

import (
	"sort"
	"time"
)

// ShiftDay is one planned day. Start and End are "HH:MM" and are nil on off-days.
type ShiftDay struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	DayOfWeek string  `json:"day_of_week"`
	Start     *string `json:"start,omitempty"`
	End       *string `json:"end,omitempty"`
	IsOffDay  bool    `json:"is_off_day"`
}

// WeekSchedule is the unit of persistence: one per (employee, week start).
// Weeks run Sunday to Saturday; WeekStart and WeekEnd are midnight UTC.
type WeekSchedule struct {
	ID         string
	EmployeeID string
	WeekStart  time.Time
	WeekEnd    time.Time
	Days       []ShiftDay
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WeekBounds returns the Sunday and Saturday of the week containing date.
func WeekBounds(date time.Time) (start, end time.Time) {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start = d.AddDate(0, 0, -int(d.Weekday()))
	return start, start.AddDate(0, 0, 6)
}

// Covers reports whether date (compared by calendar day) falls inside the week.
func (w WeekSchedule) Covers(date time.Time) bool {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(w.WeekStart) && !d.After(w.WeekEnd)
}

// DayFor returns the ShiftDay planned for the calendar day of date.
func (w WeekSchedule) DayFor(date time.Time) (ShiftDay, bool) {
	key := date.Format("2006-01-02")
	for _, d := range w.Days {
		if d.Date == key {
			return d, true
		}
	}
	return ShiftDay{}, false
}

// PutDay replaces the ShiftDay with the same date or appends it, keeping days ordered.
func (w *WeekSchedule) PutDay(day ShiftDay) {
	for i := range w.Days {
		if w.Days[i].Date == day.Date {
			w.Days[i] = day
			return
		}
	}
	w.Days = append(w.Days, day)
	sort.Slice(w.Days, func(i, j int) bool { return w.Days[i].Date < w.Days[j].Date })
}

// NewShiftDay builds a ShiftDay for date. Times are dropped on off-days.
func NewShiftDay(date time.Time, start, end *string, isOffDay bool) ShiftDay {
	day := ShiftDay{
		Date:      date.Format("2006-01-02"),
		DayOfWeek: date.Weekday().String(),
		IsOffDay:  isOffDay,
	}
	if !isOffDay {
		day.Start = start
		day.End = end
	}
	return day
}
