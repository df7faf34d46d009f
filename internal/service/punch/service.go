package punch

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/geofence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
)

// Config carries the intake policy.
type Config struct {
	Fence    geofence.Fence
	Location *time.Location
	Grace    timesheet.Grace
	// Now defaults to time.Now
	Now func() time.Time
}

type PunchServiceImpl struct {
	punchRepo    punch.PunchRepository
	employeeRepo employee.EmployeeRepository
	weekRepo     schedule.WeekScheduleRepository
	status       employee.StatusService
	aggregator   payroll.Aggregator
	cfg          Config
}

func NewPunchService(
	punchRepo punch.PunchRepository,
	employeeRepo employee.EmployeeRepository,
	weekRepo schedule.WeekScheduleRepository,
	status employee.StatusService,
	aggregator payroll.Aggregator,
	cfg Config,
) punch.PunchService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Grace == (timesheet.Grace{}) {
		cfg.Grace = timesheet.DefaultGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &PunchServiceImpl{
		punchRepo:    punchRepo,
		employeeRepo: employeeRepo,
		weekRepo:     weekRepo,
		status:       status,
		aggregator:   aggregator,
		cfg:          cfg,
	}
}

// Record implements punch.PunchService.
func (s *PunchServiceImpl) Record(ctx context.Context, req punch.RecordRequest) (punch.RecordResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return punch.RecordResponse{}, err
	}
	req.EmployeeID = id.EmployeeID

	if err := req.Validate(); err != nil {
		return punch.RecordResponse{}, err
	}

	lat, lon := req.Location.Coordinates()
	site, distance, err := s.cfg.Fence.Check(lat, lon)
	if err != nil {
		return punch.RecordResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return punch.RecordResponse{}, err
	}

	now := s.cfg.Now()
	localDate := s.localDate(now)
	typ := punch.Type(req.Type)

	exists, err := s.punchRepo.ExistsForDay(ctx, emp.ID, typ, localDate)
	if err != nil {
		return punch.RecordResponse{}, err
	}
	if exists {
		return punch.RecordResponse{}, punch.ErrDuplicatePunch
	}

	stored, err := s.punchRepo.Create(ctx, punch.Punch{
		EmployeeID: emp.ID,
		Type:       typ,
		PunchedAt:  now.UTC(),
		LocalDate:  localDate,
		Latitude:   lat,
		Longitude:  lon,
	})
	if err != nil {
		return punch.RecordResponse{}, err
	}

	exp := s.expectation(ctx, emp, localDate)
	newStatus, deviation := timesheet.NextStatus(typ, now, exp, s.cfg.Grace)
	if err := s.status.SetStatus(ctx, emp.ID, newStatus, string(deviation)); err != nil {
		slog.Error("failed to update live status",
			"employee_id", emp.ID,
			"punch_id", stored.ID,
			"status", newStatus,
			"error", err,
		)
	}

	resp := punch.RecordResponse{
		Punch:          punch.NewPunchResponse(stored),
		Site:           site.Name,
		DistanceMeters: math.Round(distance*100) / 100,
		Status:         string(newStatus),
		Deviation:      string(deviation),
	}

	period, err := s.aggregator.Recompute(ctx, emp.ID, now)
	if err != nil {
		slog.Error("payroll recompute failed after punch",
			"employee_id", emp.ID,
			"punch_id", stored.ID,
			"error", err,
		)
		resp.PayrollPending = true
		return resp, nil
	}

	periodResp := payroll.NewPeriodResponse(period)
	resp.Payroll = &periodResp
	return resp, nil
}

// localDate is the calendar day of t in the configured zone, as midnight UTC.
func (s *PunchServiceImpl) localDate(t time.Time) time.Time {
	local := t.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// expectation never fails the punch: lookup or parse problems leave the day unplanned.
func (s *PunchServiceImpl) expectation(ctx context.Context, emp employee.Employee, date time.Time) timesheet.Expectation {
	weekStart, _ := schedule.WeekBounds(date)

	var week *schedule.WeekSchedule
	ws, err := s.weekRepo.GetByEmployeeWeek(ctx, emp.ID, weekStart)
	switch {
	case err == nil:
		week = &ws
	case !errors.Is(err, schedule.ErrScheduleNotFound):
		slog.Warn("failed to load week schedule", "employee_id", emp.ID, "error", err)
	}

	exp, err := timesheet.ResolveShift(date, week, emp, s.cfg.Location)
	if err != nil {
		slog.Warn("ignoring malformed shift", "employee_id", emp.ID, "date", date.Format("2006-01-02"), "error", err)
		return timesheet.Expectation{Source: timesheet.SourceNone}
	}
	return exp
}

// ListMine implements punch.PunchService.
func (s *PunchServiceImpl) ListMine(ctx context.Context, filter punch.ListFilter) (punch.ListPunchResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return punch.ListPunchResponse{}, err
	}
	filter.EmployeeID = &id.EmployeeID
	return s.list(ctx, filter)
}

// ListAll implements punch.PunchService.
func (s *PunchServiceImpl) ListAll(ctx context.Context, filter punch.ListFilter) (punch.ListPunchResponse, error) {
	return s.list(ctx, filter)
}

func (s *PunchServiceImpl) list(ctx context.Context, filter punch.ListFilter) (punch.ListPunchResponse, error) {
	if err := filter.Validate(); err != nil {
		return punch.ListPunchResponse{}, err
	}

	punches, total, err := s.punchRepo.List(ctx, filter)
	if err != nil {
		return punch.ListPunchResponse{}, err
	}

	responses := make([]punch.PunchResponse, 0, len(punches))
	for _, p := range punches {
		responses = append(responses, punch.NewPunchResponse(p))
	}

	return punch.ListPunchResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Punches:    responses,
	}, nil
}
