package employee

import "context"

// StatusService exposes the live status board.
type StatusService interface {
	// ListStatuses returns the live status of every employee
	ListStatuses(ctx context.Context) ([]LiveStatusResponse, error)

	// MyStatus returns the live status of the authenticated employee
	MyStatus(ctx context.Context) (LiveStatusResponse, error)

	// SetStatus overwrites an employee's status and broadcasts the change
	SetStatus(ctx context.Context, employeeID string, status LiveStatus, deviation string) error
}
