package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type punchRepositoryImpl struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) punch.PunchRepository {
	return &punchRepositoryImpl{db: db}
}

const punchColumns = `id, employee_id, punch_type, punched_at, local_date, latitude, longitude, created_at`

func scanPunch(row pgx.Row) (punch.Punch, error) {
	var (
		p   punch.Punch
		typ string
	)
	if err := row.Scan(&p.ID, &p.EmployeeID, &typ, &p.PunchedAt, &p.LocalDate, &p.Latitude, &p.Longitude, &p.CreatedAt); err != nil {
		return punch.Punch{}, err
	}
	p.Type = punch.Type(typ)
	return p, nil
}

// Create implements punch.PunchRepository.
func (r *punchRepositoryImpl) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return punch.Punch{}, fmt.Errorf("failed to generate punch id: %w", err)
		}
		p.ID = id.String()
	}

	query := `
		INSERT INTO punches (id, employee_id, punch_type, punched_at, local_date, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + punchColumns

	created, err := scanPunch(q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, string(p.Type), p.PunchedAt, p.LocalDate, p.Latitude, p.Longitude,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return punch.Punch{}, punch.ErrDuplicatePunch
		}
		return punch.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}

	return created, nil
}

// ExistsForDay implements punch.PunchRepository.
func (r *punchRepositoryImpl) ExistsForDay(ctx context.Context, employeeID string, t punch.Type, localDate time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM punches
			WHERE employee_id = $1 AND punch_type = $2 AND local_date = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, string(t), localDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing punch: %w", err)
	}
	return exists, nil
}

// ListByEmployeeDates implements punch.PunchRepository.
func (r *punchRepositoryImpl) ListByEmployeeDates(ctx context.Context, employeeID string, from, to time.Time) ([]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM punches
		WHERE employee_id = $1 AND local_date BETWEEN $2 AND $3
		ORDER BY punched_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	var punches []punch.Punch
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		punches = append(punches, p)
	}

	return punches, rows.Err()
}

// List implements punch.PunchRepository.
func (r *punchRepositoryImpl) List(ctx context.Context, filter punch.ListFilter) ([]punch.Punch, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM punches WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Type != nil {
		baseQuery += fmt.Sprintf(" AND punch_type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseQuery += fmt.Sprintf(" AND local_date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseQuery += fmt.Sprintf(" AND local_date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count punches: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`SELECT %s%s ORDER BY punched_at DESC LIMIT $%d OFFSET $%d`,
		punchColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	var punches []punch.Punch
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan punch: %w", err)
		}
		punches = append(punches, p)
	}

	return punches, total, rows.Err()
}
