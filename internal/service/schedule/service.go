package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
	"github.com/teambition/rrule-go"
)

type scheduleServiceImpl struct {
	tx           database.Transactor
	weekRepo     schedule.WeekScheduleRepository
	employeeRepo employee.EmployeeRepository
	loc          *time.Location
	now          func() time.Time
}

func NewScheduleService(
	tx database.Transactor,
	weekRepo schedule.WeekScheduleRepository,
	employeeRepo employee.EmployeeRepository,
	loc *time.Location,
	now func() time.Time,
) schedule.ScheduleService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &scheduleServiceImpl{
		tx:           tx,
		weekRepo:     weekRepo,
		employeeRepo: employeeRepo,
		loc:          loc,
		now:          now,
	}
}

// UpsertDay implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpsertDay(ctx context.Context, req schedule.UpsertDayRequest) (schedule.WeekScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return schedule.WeekScheduleResponse{}, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	var saved schedule.WeekSchedule
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		ws, err := s.findOrNewWeek(txCtx, req.EmployeeID, date)
		if err != nil {
			return err
		}
		ws.PutDay(schedule.NewShiftDay(date, req.Start, req.End, req.IsOffDay))

		saved, err = s.weekRepo.Upsert(txCtx, ws)
		return err
	})
	if err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	return schedule.NewWeekScheduleResponse(saved), nil
}

// ApplyRecurrence implements schedule.ScheduleService. Days of the week matched by the
// rule get the shift, the others become off-days. Days outside the rule's own bounds
// (COUNT, UNTIL) are off-days too.
func (s *scheduleServiceImpl) ApplyRecurrence(ctx context.Context, req schedule.ApplyRecurrenceRequest) (schedule.WeekScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	weekOf, err := time.Parse("2006-01-02", req.WeekOf)
	if err != nil {
		return schedule.WeekScheduleResponse{}, fmt.Errorf("invalid week_of %q: %w", req.WeekOf, err)
	}
	weekStart, weekEnd := schedule.WeekBounds(weekOf)

	matches, err := expandRule(req.RRule, weekStart, weekEnd)
	if err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	var saved schedule.WeekSchedule
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		ws, err := s.findOrNewWeek(txCtx, req.EmployeeID, weekStart)
		if err != nil {
			return err
		}

		for d := weekStart; !d.After(weekEnd); d = d.AddDate(0, 0, 1) {
			start, end := req.Start, req.End
			ws.PutDay(schedule.NewShiftDay(d, &start, &end, !matches[d.Format("2006-01-02")]))
		}

		saved, err = s.weekRepo.Upsert(txCtx, ws)
		return err
	})
	if err != nil {
		return schedule.WeekScheduleResponse{}, err
	}

	return schedule.NewWeekScheduleResponse(saved), nil
}

// expandRule returns the dates in [weekStart, weekEnd] produced by an RFC 5545 rule
// anchored at weekStart.
func expandRule(rule string, weekStart, weekEnd time.Time) (map[string]bool, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schedule.ErrInvalidRRule, err)
	}
	opt.Dtstart = weekStart

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schedule.ErrInvalidRRule, err)
	}

	set := rrule.Set{}
	set.RRule(r)

	matches := make(map[string]bool)
	for _, occ := range set.Between(weekStart, weekEnd.Add(24*time.Hour-time.Second), true) {
		matches[occ.Format("2006-01-02")] = true
	}
	return matches, nil
}

func (s *scheduleServiceImpl) findOrNewWeek(ctx context.Context, employeeID string, date time.Time) (schedule.WeekSchedule, error) {
	weekStart, weekEnd := schedule.WeekBounds(date)

	ws, err := s.weekRepo.GetByEmployeeWeek(ctx, employeeID, weekStart)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, schedule.ErrScheduleNotFound) {
		return schedule.WeekSchedule{}, err
	}
	return schedule.WeekSchedule{
		EmployeeID: employeeID,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
	}, nil
}

// Today implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Today(ctx context.Context) (schedule.TodayResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return schedule.TodayResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, id.EmployeeID)
	if err != nil {
		return schedule.TodayResponse{}, err
	}

	local := s.now().In(s.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	weekStart, _ := schedule.WeekBounds(today)

	var week *schedule.WeekSchedule
	ws, err := s.weekRepo.GetByEmployeeWeek(ctx, emp.ID, weekStart)
	switch {
	case err == nil:
		week = &ws
	case !errors.Is(err, schedule.ErrScheduleNotFound):
		return schedule.TodayResponse{}, err
	}

	exp, err := timesheet.ResolveShift(today, week, emp, s.loc)
	if err != nil {
		return schedule.TodayResponse{}, err
	}

	return schedule.TodayResponse{
		Date:     today.Format("2006-01-02"),
		Start:    clockOf(exp.Start, s.loc),
		End:      clockOf(exp.End, s.loc),
		IsOffDay: exp.IsOffDay,
		Source:   string(exp.Source),
	}, nil
}

func clockOf(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	c := t.In(loc).Format("15:04")
	return &c
}

// ListMine implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListMine(ctx context.Context) ([]schedule.WeekScheduleResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListByEmployee(ctx, id.EmployeeID)
}

// ListByEmployee implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListByEmployee(ctx context.Context, employeeID string) ([]schedule.WeekScheduleResponse, error) {
	weeks, err := s.weekRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	responses := make([]schedule.WeekScheduleResponse, 0, len(weeks))
	for _, ws := range weeks {
		responses = append(responses, schedule.NewWeekScheduleResponse(ws))
	}
	return responses, nil
}

// Delete implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Delete(ctx context.Context, id string) error {
	return s.weekRepo.Delete(ctx, id)
}
