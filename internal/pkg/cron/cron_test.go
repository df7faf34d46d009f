package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	employeesvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// monday 2025-03-10
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(clock string) time.Time {
	t, _ := time.Parse("15:04", clock)
	return monday.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func weekWith(t *testing.T, weeks *servicetest.Weeks, employeeID string, day schedule.ShiftDay) {
	t.Helper()
	date, err := time.Parse("2006-01-02", day.Date)
	require.NoError(t, err)
	ws, we := schedule.WeekBounds(date)
	week := schedule.WeekSchedule{EmployeeID: employeeID, WeekStart: ws, WeekEnd: we}
	week.PutDay(day)
	_, err = weeks.Upsert(context.Background(), week)
	require.NoError(t, err)
}

type watcherFixture struct {
	watcher  *ScheduleWatcher
	weeks    *servicetest.Weeks
	punches  *servicetest.Punches
	notifier *servicetest.Notifier
	store    *memory.ReminderStore
	now      time.Time
}

func newWatcherFixture(t *testing.T, emps ...employee.Employee) *watcherFixture {
	t.Helper()
	f := &watcherFixture{
		weeks:    servicetest.NewWeeks(),
		punches:  servicetest.NewPunches(),
		notifier: &servicetest.Notifier{},
		store:    memory.NewReminderStore(0),
	}
	f.watcher = NewScheduleWatcher(servicetest.NewEmployees(emps...), f.weeks, f.punches, f.notifier, f.store, WatcherConfig{
		Concurrency: 2,
		Now:         func() time.Time { return f.now },
	})
	return f
}

func TestScheduleWatcher_ShiftStart(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want int
	}{
		{"six minutes ahead", "07:54", 0},
		{"five minutes ahead", "07:55", 1},
		{"one minute ahead", "07:59", 1},
		{"at start", "08:00", 0},
		{"after start", "08:02", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWatcherFixture(t, employee.Employee{ID: "emp-1", Name: "Ana"})
			weekWith(t, f.weeks, "emp-1", schedule.NewShiftDay(monday, strPtr("08:00"), strPtr("17:00"), false))
			f.now = at(tt.now)

			require.NoError(t, f.watcher.Tick(context.Background()))
			sent := f.notifier.Requests()
			require.Len(t, sent, tt.want)
			if tt.want > 0 {
				assert.Equal(t, notification.TypeShiftStarting, sent[0].Type)
				assert.Equal(t, "emp-1", sent[0].EmployeeID)
				assert.Contains(t, sent[0].Body, "08:00")
			}
		})
	}
}

func TestScheduleWatcher_SendsOncePerDay(t *testing.T) {
	f := newWatcherFixture(t, employee.Employee{ID: "emp-1"})
	weekWith(t, f.weeks, "emp-1", schedule.NewShiftDay(monday, strPtr("08:00"), strPtr("17:00"), false))

	for _, clock := range []string{"07:55", "07:56", "07:57", "07:59"} {
		f.now = at(clock)
		require.NoError(t, f.watcher.Tick(context.Background()))
	}
	assert.Len(t, f.notifier.Requests(), 1)
}

func TestScheduleWatcher_OffDayAndLegacy(t *testing.T) {
	f := newWatcherFixture(t,
		employee.Employee{ID: "off"},
		employee.Employee{ID: "legacy", LegacyEntryTime: strPtr("09:00"), LegacyExitTime: strPtr("18:00")},
		employee.Employee{ID: "unplanned"},
	)
	weekWith(t, f.weeks, "off", schedule.NewShiftDay(monday, nil, nil, true))
	f.now = at("08:57")

	require.NoError(t, f.watcher.Tick(context.Background()))
	sent := f.notifier.Requests()
	require.Len(t, sent, 1)
	assert.Equal(t, "legacy", sent[0].EmployeeID)
}

func TestScheduleWatcher_LunchEnding(t *testing.T) {
	tests := []struct {
		name    string
		punches []punch.Punch
		now     string
		want    int
	}{
		{
			name:    "lunch out plus one hour",
			punches: []punch.Punch{{Type: punch.TypeLunchOut, PunchedAt: at("12:00")}},
			now:     "12:56",
			want:    1,
		},
		{
			name:    "too early",
			punches: []punch.Punch{{Type: punch.TypeLunchOut, PunchedAt: at("12:00")}},
			now:     "12:50",
			want:    0,
		},
		{
			name: "returned already",
			punches: []punch.Punch{
				{Type: punch.TypeLunchOut, PunchedAt: at("12:00")},
				{Type: punch.TypeLunchReturn, PunchedAt: at("12:40")},
			},
			now:  "12:56",
			want: 0,
		},
		{
			name:    "no lunch",
			punches: nil,
			now:     "12:56",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWatcherFixture(t, employee.Employee{ID: "emp-1"})
			for _, p := range tt.punches {
				p.EmployeeID = "emp-1"
				p.LocalDate = monday
				_, err := f.punches.Create(context.Background(), p)
				require.NoError(t, err)
			}
			f.now = at(tt.now)

			require.NoError(t, f.watcher.Tick(context.Background()))
			sent := f.notifier.Requests()
			require.Len(t, sent, tt.want)
			if tt.want > 0 {
				assert.Equal(t, notification.TypeLunchEnding, sent[0].Type)
				assert.Contains(t, sent[0].Body, "13:00")
			}
		})
	}
}

func TestScheduleWatcher_FailureIsRetriedNextTick(t *testing.T) {
	f := newWatcherFixture(t, employee.Employee{ID: "emp-1"}, employee.Employee{ID: "emp-2"})
	weekWith(t, f.weeks, "emp-1", schedule.NewShiftDay(monday, strPtr("08:00"), nil, false))
	weekWith(t, f.weeks, "emp-2", schedule.NewShiftDay(monday, strPtr("08:00"), nil, false))
	f.now = at("07:58")

	f.notifier.Err = errors.New("queue closed")
	require.NoError(t, f.watcher.Tick(context.Background()), "per-employee failures do not fail the tick")
	assert.Empty(t, f.notifier.Requests())

	f.notifier.Err = nil
	require.NoError(t, f.watcher.Tick(context.Background()))
	assert.Len(t, f.notifier.Requests(), 2, "nothing was marked sent on failure")
}

func TestDailyStatusJob(t *testing.T) {
	emps := servicetest.NewEmployees(
		employee.Employee{ID: "off", LiveStatus: employee.StatusActive},
		employee.Employee{ID: "already", LiveStatus: employee.StatusOff},
		employee.Employee{ID: "legacy-off", DaysOff: []time.Weekday{time.Monday}},
		employee.Employee{ID: "working"},
		employee.Employee{ID: "was-off", LiveStatus: employee.StatusOff},
		employee.Employee{ID: "was-overtime", LiveStatus: employee.StatusOvertime},
		employee.Employee{ID: "at-lunch", LiveStatus: employee.StatusLunch},
		employee.Employee{ID: "unscheduled", LiveStatus: employee.StatusLate},
	)
	weeks := servicetest.NewWeeks()
	weekWith(t, weeks, "off", schedule.NewShiftDay(monday, nil, nil, true))
	weekWith(t, weeks, "already", schedule.NewShiftDay(monday, nil, nil, true))
	for _, id := range []string{"working", "was-off", "was-overtime", "at-lunch"} {
		weekWith(t, weeks, id, schedule.NewShiftDay(monday, strPtr("08:00"), strPtr("17:00"), false))
	}

	punches := servicetest.NewPunches()
	_, err := punches.Create(context.Background(), punch.Punch{EmployeeID: "at-lunch", Type: punch.TypeLunchOut, PunchedAt: at("05:30"), LocalDate: monday})
	require.NoError(t, err)
	// yesterday's punch does not count for today
	_, err = punches.Create(context.Background(), punch.Punch{EmployeeID: "was-overtime", Type: punch.TypeDeparture, PunchedAt: at("20:00").AddDate(0, 0, -1), LocalDate: monday.AddDate(0, 0, -1)})
	require.NoError(t, err)

	hub := sse.NewHub()
	board, cleanup := hub.Subscribe("sup-1")
	defer cleanup()

	job := NewDailyStatusJob(emps, weeks, punches, employeesvc.NewStatusService(emps, hub), 0, time.UTC)
	job.now = func() time.Time { return at("06:00") }

	require.NoError(t, job.Run(context.Background()))

	want := map[string]employee.LiveStatus{
		"off":          employee.StatusOff,
		"already":      employee.StatusOff,
		"legacy-off":   employee.StatusOff,
		"working":      employee.StatusInactive,
		"was-off":      employee.StatusInactive,
		"was-overtime": employee.StatusInactive,
		"at-lunch":     employee.StatusLunch,
		"unscheduled":  employee.StatusInactive,
	}
	for id, status := range want {
		assert.Equal(t, status, emps.Status(id), id)
	}
	assert.Len(t, board, 5, "one broadcast per change")

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, board, 5, "a second run changes nothing")
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var calls atomic.Int32
	s.AddJob("ok", time.Hour, func(context.Context) error { calls.Add(1); return nil })
	s.AddJob("boom", time.Hour, func(context.Context) error { panic("boom") })
	s.AddJob("after", time.Hour, func(context.Context) error { calls.Add(1); return nil })

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"ok", "boom", "after"}, s.Jobs())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	s.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
