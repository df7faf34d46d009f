package punch

import "context"

// PunchService is the punch intake entry point.
type PunchService interface {
	// Record validates, stores and applies a punch for the authenticated employee
	Record(ctx context.Context, req RecordRequest) (RecordResponse, error)

	// ListMine returns the authenticated employee's punch history
	ListMine(ctx context.Context, filter ListFilter) (ListPunchResponse, error)

	// ListAll returns every employee's punches (supervisor)
	ListAll(ctx context.Context, filter ListFilter) (ListPunchResponse, error)
}
