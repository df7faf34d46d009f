package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PeriodRepository {
	return &payrollRepository{db: db}
}

const periodColumns = `id, employee_id, period_start, period_end, hourly_rate, fixed_deductions,
	total_hours, total_overtime_hours, total_shortfall_hours, net_pay, daily_breakdown, updated_at`

func scanPeriod(row pgx.Row) (payroll.Period, error) {
	var (
		p    payroll.Period
		days []byte
	)
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodStart, &p.PeriodEnd, &p.HourlyRate, &p.FixedDeductions,
		&p.TotalHours, &p.TotalOvertimeHours, &p.TotalShortfallHours, &p.NetPay, &days, &p.UpdatedAt,
	)
	if err != nil {
		return payroll.Period{}, err
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &p.Days); err != nil {
			return payroll.Period{}, fmt.Errorf("failed to unmarshal daily breakdown: %w", err)
		}
	}
	return p, nil
}

func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + periodColumns + `
		FROM payroll_periods
		WHERE employee_id = $1 AND period_start = $2 AND period_end = $3
	`

	p, err := scanPeriod(q.QueryRow(ctx, query, employeeID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get payroll period: %w", err)
	}
	return p, nil
}

// Upsert replaces every aggregate column. The breakdown is never merged.
func (r *payrollRepository) Upsert(ctx context.Context, p payroll.Period) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return payroll.Period{}, fmt.Errorf("failed to generate period id: %w", err)
		}
		p.ID = id.String()
	}

	days := p.Days
	if days == nil {
		days = []payroll.DayDetail{}
	}
	daysJSON, err := json.Marshal(days)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("failed to marshal daily breakdown: %w", err)
	}

	query := `
		INSERT INTO payroll_periods (
			id, employee_id, period_start, period_end, hourly_rate, fixed_deductions,
			total_hours, total_overtime_hours, total_shortfall_hours, net_pay, daily_breakdown, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (employee_id, period_start, period_end) DO UPDATE SET
			hourly_rate = EXCLUDED.hourly_rate,
			fixed_deductions = EXCLUDED.fixed_deductions,
			total_hours = EXCLUDED.total_hours,
			total_overtime_hours = EXCLUDED.total_overtime_hours,
			total_shortfall_hours = EXCLUDED.total_shortfall_hours,
			net_pay = EXCLUDED.net_pay,
			daily_breakdown = EXCLUDED.daily_breakdown,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + periodColumns

	saved, err := scanPeriod(q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, p.PeriodStart, p.PeriodEnd, p.HourlyRate, p.FixedDeductions,
		p.TotalHours, p.TotalOvertimeHours, p.TotalShortfallHours, p.NetPay, daysJSON, p.UpdatedAt,
	))
	if err != nil {
		return payroll.Period{}, fmt.Errorf("failed to upsert payroll period: %w", err)
	}
	return saved, nil
}

// LockEmployeePeriod serializes recomputes of one period across instances until the
// surrounding transaction ends.
func (r *payrollRepository) LockEmployeePeriod(ctx context.Context, employeeID string, start time.Time) error {
	q := GetQuerier(ctx, r.db)

	key := employeeID + ":" + start.Format("2006-01")
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock payroll period: %w", err)
	}
	return nil
}

func (r *payrollRepository) GetLatestByEmployee(ctx context.Context, employeeID string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + periodColumns + `
		FROM payroll_periods
		WHERE employee_id = $1
		ORDER BY period_start DESC
		LIMIT 1
	`

	p, err := scanPeriod(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get latest payroll period: %w", err)
	}
	return p, nil
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.ListFilter) ([]payroll.Period, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM payroll_periods WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Year != nil {
		baseQuery += fmt.Sprintf(" AND EXTRACT(YEAR FROM period_start) = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll periods: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 12
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`SELECT %s%s ORDER BY period_start DESC, employee_id LIMIT $%d OFFSET $%d`,
		periodColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, total, rows.Err()
}
