package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `id, name, email, role, legacy_entry_time, legacy_exit_time, days_off, live_status, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp     employee.Employee
		role    string
		status  string
		daysOff []int16
	)
	err := row.Scan(
		&emp.ID, &emp.Name, &emp.Email, &role,
		&emp.LegacyEntryTime, &emp.LegacyExitTime, &daysOff,
		&status, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	emp.Role = employee.Role(role)
	emp.LiveStatus = employee.LiveStatus(status)
	for _, d := range daysOff {
		emp.DaysOff = append(emp.DaysOff, time.Weekday(d))
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// ListAll implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListAll(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY name ASC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// UpdateLiveStatus implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateLiveStatus(ctx context.Context, id string, status employee.LiveStatus) error {
	q := GetQuerier(ctx, e.db)

	query := `UPDATE employees SET live_status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := q.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update live status for employee with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
