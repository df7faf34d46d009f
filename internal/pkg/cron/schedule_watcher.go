package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reminder"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
	"golang.org/x/sync/errgroup"
)

// WatcherConfig tunes the reminder watcher. Zero values take the defaults.
type WatcherConfig struct {
	Interval      time.Duration // default: 1 minute
	Lead          time.Duration // default: 5 minutes
	LunchDuration time.Duration // default: 1 hour
	Concurrency   int           // default: 8
	Location      *time.Location
	Now           func() time.Time
}

func (c WatcherConfig) withDefaults() WatcherConfig {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Lead <= 0 {
		c.Lead = 5 * time.Minute
	}
	if c.LunchDuration <= 0 {
		c.LunchDuration = time.Hour
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// ScheduleWatcher sends the "shift starting" and "lunch ending" reminders.
type ScheduleWatcher struct {
	employeeRepo employee.EmployeeRepository
	weekRepo     schedule.WeekScheduleRepository
	punchRepo    punch.PunchRepository
	notifier     notification.Notifier
	store        reminder.Store
	cfg          WatcherConfig
}

func NewScheduleWatcher(
	employeeRepo employee.EmployeeRepository,
	weekRepo schedule.WeekScheduleRepository,
	punchRepo punch.PunchRepository,
	notifier notification.Notifier,
	store reminder.Store,
	cfg WatcherConfig,
) *ScheduleWatcher {
	return &ScheduleWatcher{
		employeeRepo: employeeRepo,
		weekRepo:     weekRepo,
		punchRepo:    punchRepo,
		notifier:     notifier,
		store:        store,
		cfg:          cfg.withDefaults(),
	}
}

func (w *ScheduleWatcher) RegisterJobs(s *Scheduler) {
	s.AddJob("schedule_reminders", w.cfg.Interval, w.Tick)
}

// dayPlan is one employee's resolved expectation for a calendar day.
type dayPlan struct {
	employee employee.Employee
	exp      timesheet.Expectation
}

// plansFor resolves today's expectation for every employee. A malformed shift is logged and
// leaves that employee out.
func plansFor(ctx context.Context, employeeRepo employee.EmployeeRepository, weekRepo schedule.WeekScheduleRepository, today time.Time, loc *time.Location) ([]dayPlan, error) {
	emps, err := employeeRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	weeks, err := weekRepo.ListCovering(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list week schedules: %w", err)
	}
	byEmployee := make(map[string]*schedule.WeekSchedule, len(weeks))
	for i := range weeks {
		byEmployee[weeks[i].EmployeeID] = &weeks[i]
	}

	plans := make([]dayPlan, 0, len(emps))
	for _, emp := range emps {
		exp, err := timesheet.ResolveShift(today, byEmployee[emp.ID], emp, loc)
		if err != nil {
			slog.Warn("skipping malformed shift", "employee_id", emp.ID, "date", today.Format("2006-01-02"), "error", err)
			continue
		}
		plans = append(plans, dayPlan{employee: emp, exp: exp})
	}
	return plans, nil
}

// localDay is the calendar day of t in loc, as midnight UTC.
func localDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
}

// Tick runs one pass over today's plans. Per-employee failures are logged, never returned.
func (w *ScheduleWatcher) Tick(ctx context.Context) error {
	now := w.cfg.Now()
	today := localDay(now, w.cfg.Location)

	plans, err := plansFor(ctx, w.employeeRepo, w.weekRepo, today, w.cfg.Location)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)
	for _, p := range plans {
		g.Go(func() error {
			if err := w.checkEmployee(ctx, p, today, now); err != nil {
				slog.Error("schedule reminder failed", "employee_id", p.employee.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (w *ScheduleWatcher) checkEmployee(ctx context.Context, p dayPlan, today, now time.Time) error {
	if p.exp.IsOffDay {
		return nil
	}

	if p.exp.Start != nil && w.due(*p.exp.Start, now) {
		err := w.remind(ctx, p.employee.ID, reminder.KindShiftStart, today, notification.CreateNotificationRequest{
			EmployeeID: p.employee.ID,
			Type:       notification.TypeShiftStarting,
			Title:      "Shift starting",
			Body:       fmt.Sprintf("Your shift starts at %s.", p.exp.Start.In(w.cfg.Location).Format("15:04")),
		})
		if err != nil {
			return err
		}
	}

	lunchEnd, ok, err := w.lunchEnd(ctx, p.employee.ID, today)
	if err != nil {
		return err
	}
	if ok && w.due(lunchEnd, now) {
		return w.remind(ctx, p.employee.ID, reminder.KindLunchEnd, today, notification.CreateNotificationRequest{
			EmployeeID: p.employee.ID,
			Type:       notification.TypeLunchEnding,
			Title:      "Lunch ending",
			Body:       fmt.Sprintf("Your lunch break ends at %s.", lunchEnd.In(w.cfg.Location).Format("15:04")),
		})
	}
	return nil
}

// due reports whether at is in (now, now+lead].
func (w *ScheduleWatcher) due(at, now time.Time) bool {
	until := at.Sub(now)
	return until > 0 && until <= w.cfg.Lead
}

// lunchEnd is the lunch_return of today if any, else lunch_out plus the lunch duration.
func (w *ScheduleWatcher) lunchEnd(ctx context.Context, employeeID string, today time.Time) (time.Time, bool, error) {
	punches, err := w.punchRepo.ListByEmployeeDates(ctx, employeeID, today, today)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load punches: %w", err)
	}

	var out, ret *time.Time
	for i := range punches {
		switch punches[i].Type {
		case punch.TypeLunchOut:
			out = &punches[i].PunchedAt
		case punch.TypeLunchReturn:
			ret = &punches[i].PunchedAt
		}
	}
	switch {
	case out == nil:
		return time.Time{}, false, nil
	case ret != nil:
		return *ret, true, nil
	default:
		return out.Add(w.cfg.LunchDuration), true, nil
	}
}

func (w *ScheduleWatcher) remind(ctx context.Context, employeeID string, kind reminder.Kind, today time.Time, req notification.CreateNotificationRequest) error {
	sent, err := w.store.WasSent(ctx, employeeID, kind, today)
	if err != nil {
		return fmt.Errorf("failed to check %s reminder: %w", kind, err)
	}
	if sent {
		return nil
	}

	if err := w.notifier.QueueNotification(ctx, req); err != nil {
		return fmt.Errorf("failed to queue %s reminder: %w", kind, err)
	}

	if err := w.store.MarkSent(ctx, employeeID, kind, today); err != nil {
		return fmt.Errorf("failed to record %s reminder: %w", kind, err)
	}
	slog.Info("reminder sent", "employee_id", employeeID, "kind", kind)
	return nil
}
