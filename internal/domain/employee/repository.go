package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when no row matches
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListAll returns every employee ordered by name
	ListAll(ctx context.Context) ([]Employee, error)

	// UpdateLiveStatus overwrites the current live status
	UpdateLiveStatus(ctx context.Context, id string, status LiveStatus) error
}
