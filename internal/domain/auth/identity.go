package auth

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Identity is the caller as asserted by a verified access token.
type Identity struct {
	EmployeeID string
	Role       employee.Role
}

func (i Identity) IsSupervisor() bool {
	return i.Role == employee.RoleSupervisor || i.Role == employee.RoleAdmin
}

// FromContext reads the identity claims placed in ctx by jwtauth.Verifier.
func FromContext(ctx context.Context) (Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return Identity{}, ErrMissingEmployeeClaim
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(employee.RoleEmployee)
	}

	return Identity{EmployeeID: employeeID, Role: employee.Role(role)}, nil
}

// NewContext returns ctx carrying an unsigned token with the identity claims, the same shape
// jwtauth.Verifier stores. Background jobs acting for an employee use it.
func NewContext(ctx context.Context, id Identity) context.Context {
	token := jwt.New()
	_ = token.Set("employee_id", id.EmployeeID)
	_ = token.Set("role", string(id.Role))
	return jwtauth.NewContext(ctx, token, nil)
}
