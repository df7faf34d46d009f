package timesheet

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// PeriodInput is everything needed to rebuild one payroll period.
type PeriodInput struct {
	Employee       employee.Employee
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Punches        []punch.Punch
	Weeks          []schedule.WeekSchedule
	Location       *time.Location
	HourlyRate     decimal.Decimal
	Deductions     decimal.Decimal
	OvertimeFactor decimal.Decimal
}

// AggregatePeriod recomputes the whole period from scratch. The result depends only on
// the input, so running it twice on the same punches yields the same period.
// ID and UpdatedAt are left for the caller.
func AggregatePeriod(in PeriodInput) payroll.Period {
	byDay := make(map[string][]punch.Punch)
	for _, p := range in.Punches {
		if p.LocalDate.Before(in.PeriodStart) || p.LocalDate.After(in.PeriodEnd) {
			continue
		}
		key := p.LocalDate.Format("2006-01-02")
		byDay[key] = append(byDay[key], p)
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	period := payroll.Period{
		EmployeeID:      in.Employee.ID,
		PeriodStart:     in.PeriodStart,
		PeriodEnd:       in.PeriodEnd,
		HourlyRate:      in.HourlyRate,
		FixedDeductions: in.Deductions,
		Days:            make([]payroll.DayDetail, 0, len(keys)),
	}

	for _, key := range keys {
		date, _ := time.Parse("2006-01-02", key)
		hours := DailyHours(byDay[key])

		detail := payroll.DayDetail{
			Date:        key,
			Arrival:     utcPtr(hours.Arrival),
			LunchOut:    utcPtr(hours.LunchOut),
			LunchReturn: utcPtr(hours.LunchReturn),
			Departure:   utcPtr(hours.Departure),
			HoursWorked: hours.Hours,
		}

		// A malformed shift leaves the day without an expectation
		exp, err := ResolveShift(date, FindWeek(in.Weeks, date), in.Employee, in.Location)
		if err == nil {
			detail.IsOffDay = exp.IsOffDay
			if expected, ok := exp.ExpectedHours(); ok {
				detail.ExpectedHours = &expected
				detail.OvertimeHours, detail.ShortfallHours = Variance(hours.Hours, expected)
			}
		}

		period.TotalHours += detail.HoursWorked
		period.TotalOvertimeHours += detail.OvertimeHours
		period.TotalShortfallHours += detail.ShortfallHours
		period.Days = append(period.Days, detail)
	}

	period.TotalHours = roundHours(period.TotalHours)
	period.TotalOvertimeHours = roundHours(period.TotalOvertimeHours)
	period.TotalShortfallHours = roundHours(period.TotalShortfallHours)
	period.NetPay = NetPay(period.TotalHours, period.TotalOvertimeHours, period.TotalShortfallHours,
		in.HourlyRate, in.Deductions, in.OvertimeFactor)

	return period
}

// Variance splits the difference between worked and expected hours into overtime or shortfall.
func Variance(worked, expected float64) (overtime, shortfall float64) {
	switch {
	case worked > expected:
		return roundHours(worked - expected), 0
	case worked < expected:
		return 0, roundHours(expected - worked)
	default:
		return 0, 0
	}
}

// NetPay = hours*rate + overtime*rate*factor - shortfall*rate - deductions, rounded to cents.
func NetPay(hours, overtime, shortfall float64, rate, deductions, overtimeFactor decimal.Decimal) decimal.Decimal {
	gross := decimal.NewFromFloat(hours).Mul(rate)
	overtimePay := decimal.NewFromFloat(overtime).Mul(rate).Mul(overtimeFactor)
	shortfallCost := decimal.NewFromFloat(shortfall).Mul(rate)

	return gross.Add(overtimePay).Sub(shortfallCost).Sub(deductions).Round(2)
}

// FormatHours renders decimal hours as "Xh YYmin".
func FormatHours(hours float64) string {
	if hours <= 0 || math.IsNaN(hours) {
		return "0h 00min"
	}
	h := math.Floor(hours)
	m := math.Round((hours - h) * 60)
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%dh %02dmin", int(h), int(m))
}

// roundHours trims float noise so sums of identical inputs encode identically.
func roundHours(h float64) float64 {
	return math.Round(h*1e4) / 1e4
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
