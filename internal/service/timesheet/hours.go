// Package timesheet holds the pure attendance calculations: daily hours, shift
// expectations, live-status transitions and the monthly period aggregate.
package timesheet

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
)

// Lunch bands
const (
	shortLunch    = 45 * time.Minute
	longLunch     = 75 * time.Minute
	standardLunch = time.Hour
)

// DayHours is the outcome of walking one day's punches.
type DayHours struct {
	Arrival     *time.Time
	LunchOut    *time.Time
	LunchReturn *time.Time
	Departure   *time.Time
	Hours       float64
}

// LunchDeduction is the lunch time charged for a break of d:
// nothing under 45 minutes, exactly one hour from 45 to 75 minutes, and the excess over
// one hour beyond that.
func LunchDeduction(d time.Duration) time.Duration {
	switch {
	case d < shortLunch:
		return 0
	case d <= longLunch:
		return standardLunch
	default:
		return d - standardLunch
	}
}

// lunchAdjustment corrects the walked segments, which already exclude the lunch gap.
func lunchAdjustment(d time.Duration) time.Duration {
	switch {
	case d < shortLunch:
		// Short breaks count as worked time
		return d
	case d <= longLunch:
		return d - LunchDeduction(d)
	default:
		// Excess is charged on top of the excluded gap
		return -LunchDeduction(d)
	}
}

// DailyHours derives worked hours from one employee's punches for one calendar day.
// Non-work punch types are ignored and the rest are walked in timestamp order.
// A day without both an arrival and a departure has zero hours.
func DailyHours(punches []punch.Punch) DayHours {
	work := make([]punch.Punch, 0, len(punches))
	for _, p := range punches {
		if p.Type.IsWork() {
			work = append(work, p)
		}
	}
	sort.SliceStable(work, func(i, j int) bool { return work[i].PunchedAt.Before(work[j].PunchedAt) })

	var (
		out        DayHours
		clockedIn  bool
		reference  *time.Time
		lunchStart *time.Time
		worked     time.Duration
	)

	for i := range work {
		at := work[i].PunchedAt
		switch work[i].Type {
		case punch.TypeArrival:
			out.Arrival = &at
			reference = &at
			clockedIn = true
		case punch.TypeLunchOut:
			out.LunchOut = &at
			if clockedIn && reference != nil {
				worked += at.Sub(*reference)
				clockedIn = false
				lunchStart = &at
			}
		case punch.TypeLunchReturn:
			out.LunchReturn = &at
			reference = &at
			clockedIn = true
		case punch.TypeDeparture:
			out.Departure = &at
			if clockedIn && reference != nil {
				worked += at.Sub(*reference)
				clockedIn = false
			}
		}
	}

	if out.Arrival == nil || out.Departure == nil {
		return out
	}

	if lunchStart != nil && out.LunchReturn != nil && out.LunchReturn.After(*lunchStart) {
		worked += lunchAdjustment(out.LunchReturn.Sub(*lunchStart))
	}

	if worked < 0 {
		worked = 0
	}
	out.Hours = roundHours(worked.Hours())
	return out
}
