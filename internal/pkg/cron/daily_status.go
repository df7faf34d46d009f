package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
)

// DailyStatusJob keeps the live status board on today. Employees whose day is planned off
// become Off; everyone else without a punch today goes back to Inactive.
type DailyStatusJob struct {
	employeeRepo employee.EmployeeRepository
	weekRepo     schedule.WeekScheduleRepository
	punchRepo    punch.PunchRepository
	status       employee.StatusService
	interval     time.Duration
	loc          *time.Location
	now          func() time.Time
}

func NewDailyStatusJob(
	employeeRepo employee.EmployeeRepository,
	weekRepo schedule.WeekScheduleRepository,
	punchRepo punch.PunchRepository,
	status employee.StatusService,
	interval time.Duration,
	loc *time.Location,
) *DailyStatusJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyStatusJob{
		employeeRepo: employeeRepo,
		weekRepo:     weekRepo,
		punchRepo:    punchRepo,
		status:       status,
		interval:     interval,
		loc:          loc,
		now:          time.Now,
	}
}

func (j *DailyStatusJob) RegisterJobs(s *Scheduler) {
	s.AddJob("daily_status", j.interval, j.Run)
}

// Run moves each employee to the status today calls for. SetStatus broadcasts every change.
func (j *DailyStatusJob) Run(ctx context.Context) error {
	today := localDay(j.now(), j.loc)

	plans, err := plansFor(ctx, j.employeeRepo, j.weekRepo, today, j.loc)
	if err != nil {
		return err
	}

	off, reset := 0, 0
	for _, p := range plans {
		if p.exp.IsOffDay {
			if p.employee.LiveStatus == employee.StatusOff {
				continue
			}
			if err := j.status.SetStatus(ctx, p.employee.ID, employee.StatusOff, string(timesheet.DeviationOffDay)); err != nil {
				slog.Error("failed to set off-day status", "employee_id", p.employee.ID, "error", err)
				continue
			}
			off++
			continue
		}

		if p.employee.LiveStatus == employee.StatusInactive {
			continue
		}
		changed, err := j.resetIfIdle(ctx, p.employee.ID, today)
		if err != nil {
			slog.Error("failed to reset live status", "employee_id", p.employee.ID, "error", err)
			continue
		}
		if changed {
			reset++
		}
	}

	if off > 0 || reset > 0 {
		slog.Info("daily statuses updated", "off", off, "reset", reset, "date", today.Format("2006-01-02"))
	}
	return nil
}

// resetIfIdle sets Inactive when the employee has not punched today. A status carried
// over from an earlier day is stale once the day changes.
func (j *DailyStatusJob) resetIfIdle(ctx context.Context, employeeID string, today time.Time) (bool, error) {
	punches, err := j.punchRepo.ListByEmployeeDates(ctx, employeeID, today, today)
	if err != nil {
		return false, fmt.Errorf("failed to load punches: %w", err)
	}
	if len(punches) > 0 {
		return false, nil
	}
	if err := j.status.SetStatus(ctx, employeeID, employee.StatusInactive, string(timesheet.DeviationNone)); err != nil {
		return false, err
	}
	return true, nil
}
