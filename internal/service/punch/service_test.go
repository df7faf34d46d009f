package punch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/geofence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
	employeesvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/employee"
	payrollsvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/servicetest"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	office = geofence.Site{Name: "hq", Latitude: -24.00499845450938, Longitude: -46.412365233301664, RadiusMeters: 100}
	onSite = punch.NewLocation(office.Latitude, office.Longitude)
	// roughly 1.1 km north of the office
	farAway = punch.NewLocation(office.Latitude+0.01, office.Longitude)
)

type aggregatorFunc func(ctx context.Context, employeeID string, at time.Time) (payroll.Period, error)

func (f aggregatorFunc) Recompute(ctx context.Context, employeeID string, at time.Time) (payroll.Period, error) {
	return f(ctx, employeeID, at)
}

type fixture struct {
	svc       punch.PunchService
	punches   *servicetest.Punches
	employees *servicetest.Employees
	weeks     *servicetest.Weeks
	hub       *sse.Hub
	recomputs int
	failPay   error
	now       time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		punches: servicetest.NewPunches(),
		employees: servicetest.NewEmployees(
			employee.Employee{ID: "emp-1", Name: "Ana"},
		),
		weeks: servicetest.NewWeeks(),
		hub:   sse.NewHub(),
		now:   now,
	}
	agg := aggregatorFunc(func(_ context.Context, employeeID string, at time.Time) (payroll.Period, error) {
		f.recomputs++
		if f.failPay != nil {
			return payroll.Period{}, f.failPay
		}
		start, end, err := payroll.MonthBounds(at)
		return payroll.Period{EmployeeID: employeeID, PeriodStart: start, PeriodEnd: end, TotalHours: 1}, err
	})
	f.svc = NewPunchService(f.punches, f.employees, f.weeks, employeesvc.NewStatusService(f.employees, f.hub), agg, Config{
		Fence:    geofence.NewFence(office),
		Location: time.UTC,
		Grace:    timesheet.DefaultGrace,
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) planToday(t *testing.T, start, end string) {
	t.Helper()
	date := time.Date(f.now.Year(), f.now.Month(), f.now.Day(), 0, 0, 0, 0, time.UTC)
	ws, we := schedule.WeekBounds(date)
	week := schedule.WeekSchedule{EmployeeID: "emp-1", WeekStart: ws, WeekEnd: we}
	week.PutDay(schedule.NewShiftDay(date, &start, &end, false))
	_, err := f.weeks.Upsert(context.Background(), week)
	require.NoError(t, err)
}

func as(id string) context.Context {
	return auth.NewContext(context.Background(), auth.Identity{EmployeeID: id, Role: employee.RoleEmployee})
}

func TestRecord_Arrival(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 8, 3, 0, 0, time.UTC))
	f.planToday(t, "08:00", "17:00")

	board, cleanup := f.hub.Subscribe("sup-1")
	defer cleanup()

	resp, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "arrival", Location: onSite})
	require.NoError(t, err)

	assert.Equal(t, "arrival", resp.Punch.Type)
	assert.Equal(t, "2025-03-10", resp.Punch.LocalDate)
	assert.Equal(t, "emp-1", resp.Punch.EmployeeID)
	assert.Equal(t, "hq", resp.Site)
	assert.Equal(t, "Active", resp.Status, "within the late grace")
	assert.Equal(t, "none", resp.Deviation)
	require.NotNil(t, resp.Payroll)
	assert.False(t, resp.PayrollPending)

	assert.Equal(t, employee.StatusActive, f.employees.Status("emp-1"))
	assert.Equal(t, 1, f.recomputs)
	assert.Len(t, board, 1)
}

func TestRecord_StatusTransitions(t *testing.T) {
	tests := []struct {
		name      string
		at        string
		typ       string
		offDay    bool
		status    string
		deviation string
	}{
		{"late arrival", "08:06", "arrival", false, "Late", "late_arrival"},
		{"lunch out", "12:00", "lunch_out", false, "Lunch", "none"},
		{"departure on time", "17:10", "departure", false, "Inactive", "none"},
		{"overtime departure", "17:11", "departure", false, "Overtime", "overtime"},
		{"arrival on an off-day", "08:00", "arrival", true, "Off", "off_day"},
		{"manual late marker", "10:00", "late", false, "Late", "late_arrival"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, _ := time.Parse("15:04", tt.at)
			f := newFixture(t, time.Date(2025, 3, 10, clock.Hour(), clock.Minute(), 0, 0, time.UTC))
			if tt.offDay {
				date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
				ws, we := schedule.WeekBounds(date)
				week := schedule.WeekSchedule{EmployeeID: "emp-1", WeekStart: ws, WeekEnd: we}
				week.PutDay(schedule.NewShiftDay(date, nil, nil, true))
				_, err := f.weeks.Upsert(context.Background(), week)
				require.NoError(t, err)
			} else {
				f.planToday(t, "08:00", "17:00")
			}

			resp, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: tt.typ, Location: onSite})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.deviation, resp.Deviation)
		})
	}
}

func TestRecord_Rejections(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t, time.Now())
		_, err := f.svc.Record(as("emp-1"), punch.RecordRequest{})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "type")
		assert.Contains(t, verrs.ToMap(), "location")
		assert.Zero(t, f.punches.Len())
	})

	t.Run("missing coordinate", func(t *testing.T) {
		bodies := []struct {
			body    string
			missing []string
		}{
			{`{"type":"arrival","location":{"latitude":-24.005}}`, []string{"location.longitude"}},
			{`{"type":"arrival","location":{"longitude":-46.4124}}`, []string{"location.latitude"}},
			{`{"type":"arrival","location":{}}`, []string{"location.latitude", "location.longitude"}},
		}
		for _, tt := range bodies {
			f := newFixture(t, time.Now())
			var req punch.RecordRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			_, err := f.svc.Record(as("emp-1"), req)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs, tt.body)
			for _, field := range tt.missing {
				assert.Contains(t, verrs.ToMap(), field, tt.body)
			}
			assert.NotErrorIs(t, err, punch.ErrOutOfRange)
			assert.Zero(t, f.punches.Len())
		}
	})

	t.Run("out of range carries the distance", func(t *testing.T) {
		f := newFixture(t, time.Now())
		_, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "arrival", Location: farAway})
		require.ErrorIs(t, err, punch.ErrOutOfRange)
		var oor *geofence.OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.InDelta(t, 1112, oor.Distance, 5)
		assert.Zero(t, f.punches.Len())
	})

	t.Run("unknown employee stores nothing", func(t *testing.T) {
		f := newFixture(t, time.Now())
		_, err := f.svc.Record(as("ghost"), punch.RecordRequest{Type: "arrival", Location: onSite})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
		assert.Zero(t, f.punches.Len())
		assert.Zero(t, f.recomputs)
	})

	t.Run("duplicate type on the same day", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
		_, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "arrival", Location: onSite})
		require.NoError(t, err)

		f.now = f.now.Add(time.Hour)
		_, err = f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "arrival", Location: onSite})
		assert.ErrorIs(t, err, punch.ErrDuplicatePunch)
		assert.Equal(t, 1, f.punches.Len())

		f.now = f.now.AddDate(0, 0, 1)
		_, err = f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "arrival", Location: onSite})
		assert.NoError(t, err, "a new day accepts the same type again")
	})

	t.Run("no identity", func(t *testing.T) {
		f := newFixture(t, time.Now())
		_, err := f.svc.Record(context.Background(), punch.RecordRequest{Type: "arrival", Location: onSite})
		assert.Error(t, err)
	})
}

func TestRecord_PayrollFailureKeepsPunch(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC))
	f.failPay = errors.New("database unavailable")

	resp, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "departure", Location: onSite})
	require.NoError(t, err)
	assert.True(t, resp.PayrollPending)
	assert.Nil(t, resp.Payroll)
	assert.Equal(t, 1, f.punches.Len())
	assert.Equal(t, employee.StatusInactive, f.employees.Status("emp-1"))
}

func TestRecord_LocalDateFollowsZone(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 11, 1, 30, 0, 0, time.UTC))
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	f.svc.(*PunchServiceImpl).cfg.Location = saoPaulo

	resp, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: "departure", Location: onSite})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", resp.Punch.LocalDate, "22:30 local is still the 10th")
}

func TestListMine(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	for _, typ := range []string{"arrival", "lunch_out", "lunch_return", "departure"} {
		_, err := f.svc.Record(as("emp-1"), punch.RecordRequest{Type: typ, Location: onSite})
		require.NoError(t, err)
		f.now = f.now.Add(2 * time.Hour)
	}

	page, err := f.svc.ListMine(as("emp-1"), punch.ListFilter{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Punches, 3)
	assert.Equal(t, "departure", page.Punches[0].Type, "newest first")

	typ := "lunch_out"
	filtered, err := f.svc.ListAll(context.Background(), punch.ListFilter{Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.TotalCount)

	bad := "nap"
	_, err = f.svc.ListAll(context.Background(), punch.ListFilter{Type: &bad})
	assert.Error(t, err)
}

func TestRecord_ConcurrentPunchesBothReachPayroll(t *testing.T) {
	punches := servicetest.NewPunches()
	employees := servicetest.NewEmployees(employee.Employee{ID: "emp-1", Name: "Ana"})
	weeks := servicetest.NewWeeks()
	periods := servicetest.NewPeriods()
	periods.Hold = 2 * time.Millisecond

	status := employeesvc.NewStatusService(employees, sse.NewHub())
	aggregator := payrollsvc.NewPayrollService(&servicetest.Transactor{}, periods, punches, employees, weeks, payrollsvc.Config{Location: time.UTC})

	// One service per request clock, all sharing the stores and the aggregator
	submit := func(clock time.Time, typ string) error {
		svc := NewPunchService(punches, employees, weeks, status, aggregator, Config{
			Fence:    geofence.NewFence(office),
			Location: time.UTC,
			Now:      func() time.Time { return clock },
		})
		resp, err := svc.Record(as("emp-1"), punch.RecordRequest{Type: typ, Location: onSite})
		if err == nil && resp.PayrollPending {
			return errors.New("payroll left pending")
		}
		return err
	}

	for i := 0; i < 20; i++ {
		day := time.Date(2025, 3, 3+i, 0, 0, 0, 0, time.UTC)
		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, p := range []struct {
			typ   string
			clock time.Time
		}{
			{"arrival", day.Add(8 * time.Hour)},
			{"departure", day.Add(17 * time.Hour)},
		} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- submit(p.clock, p.typ)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	}

	period, err := periods.GetLatestByEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Len(t, period.Days, 20)
	assert.Equal(t, 180.0, period.TotalHours, "every day counts both punches")
	assert.Equal(t, 1, periods.MaxInFlight)
}
