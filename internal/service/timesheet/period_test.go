package timesheet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayPunches(date time.Time, pairs ...string) []punch.Punch {
	var out []punch.Punch
	for i := 0; i+1 < len(pairs); i += 2 {
		clock, _ := time.Parse("15:04", pairs[i+1])
		out = append(out, punch.Punch{
			EmployeeID: "emp-1",
			Type:       punch.Type(pairs[i]),
			PunchedAt:  time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC),
			LocalDate:  date,
		})
	}
	return out
}

func baseInput(t *testing.T, punches []punch.Punch, weeks ...schedule.WeekSchedule) PeriodInput {
	t.Helper()
	start, end, err := payroll.MonthBounds(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return PeriodInput{
		Employee:       employee.Employee{ID: "emp-1"},
		PeriodStart:    start,
		PeriodEnd:      end,
		Punches:        punches,
		Weeks:          weeks,
		Location:       time.UTC,
		HourlyRate:     decimal.NewFromInt(20),
		Deductions:     decimal.Zero,
		OvertimeFactor: decimal.NewFromFloat(1.5),
	}
}

func TestAggregatePeriod_OvertimeAndShortfall(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	ws := weekOf(monday,
		schedule.NewShiftDay(monday, strPtr("08:00"), strPtr("17:00"), false),
		schedule.NewShiftDay(tuesday, strPtr("08:00"), strPtr("17:00"), false),
	)

	var all []punch.Punch
	// 10 worked hours against a 9 hour shift
	all = append(all, dayPunches(monday, "arrival", "07:00", "departure", "17:00")...)
	// 7 worked hours against a 9 hour shift
	all = append(all, dayPunches(tuesday, "arrival", "08:00", "departure", "15:00")...)

	period := AggregatePeriod(baseInput(t, all, *ws))

	require.Len(t, period.Days, 2)
	assert.Equal(t, "2025-03-10", period.Days[0].Date)
	assert.Equal(t, 1.0, period.Days[0].OvertimeHours)
	assert.Equal(t, 0.0, period.Days[0].ShortfallHours)
	assert.Equal(t, 0.0, period.Days[1].OvertimeHours)
	assert.Equal(t, 2.0, period.Days[1].ShortfallHours)

	assert.Equal(t, 17.0, period.TotalHours)
	assert.Equal(t, 1.0, period.TotalOvertimeHours)
	assert.Equal(t, 2.0, period.TotalShortfallHours)

	// 17*20 + 1*20*1.5 - 2*20 = 340 + 30 - 40
	assert.True(t, decimal.NewFromInt(330).Equal(period.NetPay), period.NetPay.String())
}

func TestAggregatePeriod_OffDayExemption(t *testing.T) {
	saturday := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	ws := weekOf(saturday, schedule.NewShiftDay(saturday, nil, nil, true))

	period := AggregatePeriod(baseInput(t, dayPunches(saturday, "arrival", "08:00", "departure", "12:00"), *ws))

	require.Len(t, period.Days, 1)
	assert.True(t, period.Days[0].IsOffDay)
	assert.Equal(t, 4.0, period.TotalHours)
	assert.Equal(t, 0.0, period.TotalOvertimeHours)
	assert.Equal(t, 0.0, period.TotalShortfallHours)
}

func TestAggregatePeriod_NoExpectationOnlyCountsHours(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	period := AggregatePeriod(baseInput(t, dayPunches(monday, "arrival", "08:00", "departure", "20:00")))

	assert.Equal(t, 12.0, period.TotalHours)
	assert.Equal(t, 0.0, period.TotalOvertimeHours)
	assert.Nil(t, period.Days[0].ExpectedHours)
}

func TestAggregatePeriod_IgnoresPunchesOutsideThePeriod(t *testing.T) {
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	var all []punch.Punch
	all = append(all, dayPunches(monday, "arrival", "08:00", "departure", "12:00")...)
	all = append(all, dayPunches(april, "arrival", "08:00", "departure", "12:00")...)

	period := AggregatePeriod(baseInput(t, all))
	assert.Len(t, period.Days, 1)
	assert.Equal(t, 4.0, period.TotalHours)
}

func TestAggregatePeriod_Idempotent(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	ws := weekOf(monday, schedule.NewShiftDay(monday, strPtr("08:00"), strPtr("17:00"), false))
	all := dayPunches(monday, "arrival", "08:00", "lunch_out", "12:00", "lunch_return", "13:10", "departure", "17:20")

	first, err := json.Marshal(payroll.NewPeriodResponse(AggregatePeriod(baseInput(t, all, *ws))))
	require.NoError(t, err)

	// Same punch set in a different order
	reversed := make([]punch.Punch, len(all))
	for i := range all {
		reversed[len(all)-1-i] = all[i]
	}
	second, err := json.Marshal(payroll.NewPeriodResponse(AggregatePeriod(baseInput(t, reversed, *ws))))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestNetPay(t *testing.T) {
	got := NetPay(160, 5, 2, decimal.NewFromInt(20), decimal.NewFromInt(50), decimal.NewFromFloat(1.5))
	assert.True(t, decimal.NewFromInt(3260).Equal(got), got.String())

	got = NetPay(7.3333, 0, 0, decimal.RequireFromString("18.75"), decimal.Zero, decimal.NewFromFloat(1.5))
	assert.Equal(t, "137.5", got.String())
}

func TestVariance(t *testing.T) {
	ot, sf := Variance(10, 9)
	assert.Equal(t, 1.0, ot)
	assert.Equal(t, 0.0, sf)

	ot, sf = Variance(7, 9)
	assert.Equal(t, 0.0, ot)
	assert.Equal(t, 2.0, sf)

	ot, sf = Variance(9, 9)
	assert.Zero(t, ot)
	assert.Zero(t, sf)
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0h 00min"},
		{-3, "0h 00min"},
		{8, "8h 00min"},
		{7.5, "7h 30min"},
		{1.0 / 60, "0h 01min"},
		{9.999, "10h 00min"},
		{160.25, "160h 15min"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatHours(tt.hours))
		})
	}
}
