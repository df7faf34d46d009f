package auth

import "errors"

// Identity errors. Authentication itself happens upstream; this service only verifies tokens.
var (
	ErrInvalidToken               = errors.New("invalid or expired token")
	ErrMissingEmployeeClaim       = errors.New("employee_id claim is missing or invalid")
	ErrSupervisorAccessRequired   = errors.New("supervisor access required")
	ErrForbiddenForOtherEmployees = errors.New("you may only access your own records")
)
