package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type weekScheduleRepositoryImpl struct {
	db *database.DB
}

func NewWeekScheduleRepository(db *database.DB) schedule.WeekScheduleRepository {
	return &weekScheduleRepositoryImpl{db: db}
}

const weekScheduleColumns = `id, employee_id, week_start, week_end, days, created_at, updated_at`

func scanWeekSchedule(row pgx.Row) (schedule.WeekSchedule, error) {
	var (
		ws   schedule.WeekSchedule
		days []byte
	)
	if err := row.Scan(&ws.ID, &ws.EmployeeID, &ws.WeekStart, &ws.WeekEnd, &days, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return schedule.WeekSchedule{}, err
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &ws.Days); err != nil {
			return schedule.WeekSchedule{}, fmt.Errorf("failed to unmarshal schedule days: %w", err)
		}
	}
	return ws, nil
}

func (w *weekScheduleRepositoryImpl) queryMany(ctx context.Context, query string, args ...interface{}) ([]schedule.WeekSchedule, error) {
	q := GetQuerier(ctx, w.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query week schedules: %w", err)
	}
	defer rows.Close()

	var out []schedule.WeekSchedule
	for rows.Next() {
		ws, err := scanWeekSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan week schedule: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// GetByID implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) GetByID(ctx context.Context, id string) (schedule.WeekSchedule, error) {
	q := GetQuerier(ctx, w.db)

	query := `SELECT ` + weekScheduleColumns + ` FROM week_schedules WHERE id = $1`

	ws, err := scanWeekSchedule(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WeekSchedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.WeekSchedule{}, fmt.Errorf("failed to get week schedule: %w", err)
	}
	return ws, nil
}

// GetByEmployeeWeek implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) GetByEmployeeWeek(ctx context.Context, employeeID string, weekStart time.Time) (schedule.WeekSchedule, error) {
	q := GetQuerier(ctx, w.db)

	query := `SELECT ` + weekScheduleColumns + ` FROM week_schedules WHERE employee_id = $1 AND week_start = $2`

	ws, err := scanWeekSchedule(q.QueryRow(ctx, query, employeeID, weekStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WeekSchedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.WeekSchedule{}, fmt.Errorf("failed to get week schedule: %w", err)
	}
	return ws, nil
}

// Upsert implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) Upsert(ctx context.Context, ws schedule.WeekSchedule) (schedule.WeekSchedule, error) {
	q := GetQuerier(ctx, w.db)

	if ws.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return schedule.WeekSchedule{}, fmt.Errorf("failed to generate schedule id: %w", err)
		}
		ws.ID = id.String()
	}

	days, err := json.Marshal(ws.Days)
	if err != nil {
		return schedule.WeekSchedule{}, fmt.Errorf("failed to marshal schedule days: %w", err)
	}

	query := `
		INSERT INTO week_schedules (id, employee_id, week_start, week_end, days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, week_start) DO UPDATE
		SET week_end = EXCLUDED.week_end, days = EXCLUDED.days, updated_at = NOW()
		RETURNING ` + weekScheduleColumns

	saved, err := scanWeekSchedule(q.QueryRow(ctx, query, ws.ID, ws.EmployeeID, ws.WeekStart, ws.WeekEnd, days))
	if err != nil {
		return schedule.WeekSchedule{}, fmt.Errorf("failed to upsert week schedule: %w", err)
	}
	return saved, nil
}

// ListByEmployee implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]schedule.WeekSchedule, error) {
	query := `SELECT ` + weekScheduleColumns + ` FROM week_schedules WHERE employee_id = $1 ORDER BY week_start DESC`
	return w.queryMany(ctx, query, employeeID)
}

// ListByEmployeeBetween implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.WeekSchedule, error) {
	query := `
		SELECT ` + weekScheduleColumns + `
		FROM week_schedules
		WHERE employee_id = $1 AND week_start <= $3 AND week_end >= $2
		ORDER BY week_start ASC
	`
	return w.queryMany(ctx, query, employeeID, from, to)
}

// ListCovering implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) ListCovering(ctx context.Context, date time.Time) ([]schedule.WeekSchedule, error) {
	query := `
		SELECT ` + weekScheduleColumns + `
		FROM week_schedules
		WHERE week_start <= $1 AND week_end >= $1
		ORDER BY employee_id
	`
	return w.queryMany(ctx, query, date)
}

// Delete implements schedule.WeekScheduleRepository.
func (w *weekScheduleRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, w.db)

	tag, err := q.Exec(ctx, `DELETE FROM week_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete week schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}
