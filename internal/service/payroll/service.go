package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
	"github.com/shopspring/decimal"
)

// Config holds the payroll defaults.
type Config struct {
	Location          *time.Location
	DefaultHourlyRate decimal.Decimal
	OvertimeFactor    decimal.Decimal
	// Now defaults to time.Now
	Now func() time.Time
}

type PayrollServiceImpl struct {
	tx           database.Transactor
	periodRepo   payroll.PeriodRepository
	punchRepo    punch.PunchRepository
	employeeRepo employee.EmployeeRepository
	scheduleRepo schedule.WeekScheduleRepository
	locks        *keylock.KeyLock
	cfg          Config
}

func NewPayrollService(
	tx database.Transactor,
	periodRepo payroll.PeriodRepository,
	punchRepo punch.PunchRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.WeekScheduleRepository,
	cfg Config,
) payroll.PayrollService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultHourlyRate.IsZero() {
		cfg.DefaultHourlyRate = decimal.NewFromInt(20)
	}
	if cfg.OvertimeFactor.IsZero() {
		cfg.OvertimeFactor = decimal.NewFromFloat(1.5)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &PayrollServiceImpl{
		tx:           tx,
		periodRepo:   periodRepo,
		punchRepo:    punchRepo,
		employeeRepo: employeeRepo,
		scheduleRepo: scheduleRepo,
		locks:        keylock.New(),
		cfg:          cfg,
	}
}

// ========== AGGREGATION ==========

// Recompute implements payroll.Aggregator.
func (s *PayrollServiceImpl) Recompute(ctx context.Context, employeeID string, at time.Time) (payroll.Period, error) {
	return s.recompute(ctx, employeeID, at, nil)
}

// settings overrides the stored rate and deductions before aggregation.
type settings struct {
	rate       *decimal.Decimal
	deductions *decimal.Decimal
}

func (s *PayrollServiceImpl) recompute(ctx context.Context, employeeID string, at time.Time, override *settings) (payroll.Period, error) {
	if at.IsZero() {
		return payroll.Period{}, payroll.ErrInvalidPeriod
	}
	start, end, err := payroll.MonthBounds(at.In(s.cfg.Location))
	if err != nil {
		return payroll.Period{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return payroll.Period{}, err
	}

	unlock := s.locks.Lock(employeeID + ":" + start.Format("2006-01"))
	defer unlock()

	var saved payroll.Period
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.periodRepo.LockEmployeePeriod(txCtx, employeeID, start); err != nil {
			return err
		}

		current, err := s.periodRepo.GetByEmployeePeriod(txCtx, employeeID, start, end)
		if err != nil {
			if !errors.Is(err, payroll.ErrPeriodNotFound) {
				return err
			}
			current = payroll.Period{
				HourlyRate:      s.cfg.DefaultHourlyRate,
				FixedDeductions: decimal.Zero,
			}
		}
		if override != nil {
			if override.rate != nil {
				current.HourlyRate = *override.rate
			}
			if override.deductions != nil {
				current.FixedDeductions = *override.deductions
			}
		}

		punches, err := s.punchRepo.ListByEmployeeDates(txCtx, employeeID, start, end)
		if err != nil {
			return err
		}
		weeks, err := s.scheduleRepo.ListByEmployeeBetween(txCtx, employeeID, start, end)
		if err != nil {
			return err
		}

		period := timesheet.AggregatePeriod(timesheet.PeriodInput{
			Employee:       emp,
			PeriodStart:    start,
			PeriodEnd:      end,
			Punches:        punches,
			Weeks:          weeks,
			Location:       s.cfg.Location,
			HourlyRate:     current.HourlyRate,
			Deductions:     current.FixedDeductions,
			OvertimeFactor: s.cfg.OvertimeFactor,
		})
		period.ID = current.ID
		period.UpdatedAt = s.cfg.Now().UTC()

		saved, err = s.periodRepo.Upsert(txCtx, period)
		return err
	})
	if err != nil {
		return payroll.Period{}, fmt.Errorf("failed to recompute payroll for %s: %w", employeeID, err)
	}

	slog.Debug("payroll period recomputed",
		"employee_id", employeeID,
		"period_start", start.Format("2006-01-02"),
		"total_hours", saved.TotalHours,
		"net_pay", saved.NetPay.String(),
	)
	return saved, nil
}

// RecomputeMonth implements payroll.PayrollService.
func (s *PayrollServiceImpl) RecomputeMonth(ctx context.Context, req payroll.RecomputeRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.cfg.Location)
	if err != nil {
		return payroll.PeriodResponse{}, payroll.ErrInvalidPeriod
	}

	period, err := s.Recompute(ctx, req.EmployeeID, date)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return payroll.NewPeriodResponse(period), nil
}

// UpdateSettings implements payroll.PayrollService.
func (s *PayrollServiceImpl) UpdateSettings(ctx context.Context, req payroll.UpdateSettingsRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.PeriodStart, s.cfg.Location)
	if err != nil {
		return payroll.PeriodResponse{}, payroll.ErrInvalidPeriod
	}

	period, err := s.recompute(ctx, req.EmployeeID, date, &settings{
		rate:       req.HourlyRate,
		deductions: req.FixedDeductions,
	})
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	return payroll.NewPeriodResponse(period), nil
}

// ========== QUERIES ==========

// ListMine implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListMine(ctx context.Context, filter payroll.ListFilter) (payroll.ListPeriodResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return payroll.ListPeriodResponse{}, err
	}
	filter.EmployeeID = &id.EmployeeID
	return s.list(ctx, filter)
}

// ListAll implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListAll(ctx context.Context, filter payroll.ListFilter) (payroll.ListPeriodResponse, error) {
	return s.list(ctx, filter)
}

func (s *PayrollServiceImpl) list(ctx context.Context, filter payroll.ListFilter) (payroll.ListPeriodResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPeriodResponse{}, err
	}

	periods, total, err := s.periodRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPeriodResponse{}, err
	}

	responses := make([]payroll.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		responses = append(responses, payroll.NewPeriodResponse(p))
	}

	return payroll.ListPeriodResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Periods:    responses,
	}, nil
}

// Report implements payroll.PayrollService. Without any period the report is zeroed.
func (s *PayrollServiceImpl) Report(ctx context.Context, employeeID string) (payroll.ReportResponse, error) {
	employeeID, err := s.authorize(ctx, employeeID)
	if err != nil {
		return payroll.ReportResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return payroll.ReportResponse{}, err
	}

	period, err := s.periodRepo.GetLatestByEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, payroll.ErrPeriodNotFound) {
			return payroll.ReportResponse{
				EmployeeID:     employeeID,
				HoursWorked:    timesheet.FormatHours(0),
				OvertimeHours:  timesheet.FormatHours(0),
				ShortfallHours: timesheet.FormatHours(0),
				HourlyRate:     s.cfg.DefaultHourlyRate,
				NetPay:         decimal.Zero,
				Days:           []payroll.ReportDay{},
			}, nil
		}
		return payroll.ReportResponse{}, err
	}

	start := period.PeriodStart.Format("2006-01-02")
	end := period.PeriodEnd.Format("2006-01-02")

	days := make([]payroll.ReportDay, 0, len(period.Days))
	for _, d := range period.Days {
		days = append(days, payroll.ReportDay{
			Date:        d.Date,
			HoursWorked: timesheet.FormatHours(d.HoursWorked),
			Overtime:    timesheet.FormatHours(d.OvertimeHours),
			Shortfall:   timesheet.FormatHours(d.ShortfallHours),
		})
	}

	return payroll.ReportResponse{
		EmployeeID:     employeeID,
		PeriodStart:    &start,
		PeriodEnd:      &end,
		HoursWorked:    timesheet.FormatHours(period.TotalHours),
		OvertimeHours:  timesheet.FormatHours(period.TotalOvertimeHours),
		ShortfallHours: timesheet.FormatHours(period.TotalShortfallHours),
		HourlyRate:     period.HourlyRate,
		NetPay:         period.NetPay,
		Days:           days,
	}, nil
}

// authorize resolves an empty employeeID to the caller and keeps employees to their own data.
func (s *PayrollServiceImpl) authorize(ctx context.Context, employeeID string) (string, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return "", err
	}
	if employeeID == "" {
		return id.EmployeeID, nil
	}
	if employeeID != id.EmployeeID && !id.IsSupervisor() {
		return "", auth.ErrForbiddenForOtherEmployees
	}
	return employeeID, nil
}
