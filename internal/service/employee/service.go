package employee

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// EventStatusChanged is the SSE event name of a live-status change.
const EventStatusChanged = "status_changed"

type statusServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	hub          *sse.Hub
}

func NewStatusService(employeeRepo employee.EmployeeRepository, hub *sse.Hub) employee.StatusService {
	return &statusServiceImpl{
		employeeRepo: employeeRepo,
		hub:          hub,
	}
}

func toLiveStatusResponse(emp employee.Employee) employee.LiveStatusResponse {
	return employee.LiveStatusResponse{
		EmployeeID: emp.ID,
		Name:       emp.Name,
		Status:     string(emp.LiveStatus),
		UpdatedAt:  emp.UpdatedAt,
	}
}

// ListStatuses implements employee.StatusService.
func (s *statusServiceImpl) ListStatuses(ctx context.Context) ([]employee.LiveStatusResponse, error) {
	emps, err := s.employeeRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]employee.LiveStatusResponse, 0, len(emps))
	for _, emp := range emps {
		out = append(out, toLiveStatusResponse(emp))
	}
	return out, nil
}

// MyStatus implements employee.StatusService.
func (s *statusServiceImpl) MyStatus(ctx context.Context) (employee.LiveStatusResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return employee.LiveStatusResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, id.EmployeeID)
	if err != nil {
		return employee.LiveStatusResponse{}, err
	}
	return toLiveStatusResponse(emp), nil
}

// SetStatus implements employee.StatusService. The broadcast happens after the write succeeds.
func (s *statusServiceImpl) SetStatus(ctx context.Context, employeeID string, status employee.LiveStatus, deviation string) error {
	if !validator.IsInSlice(string(status), employee.LiveStatusValues) {
		return employee.ErrInvalidStatus
	}

	if err := s.employeeRepo.UpdateLiveStatus(ctx, employeeID, status); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Broadcast(sse.Event{
			Event: EventStatusChanged,
			Data: employee.StatusChangedEvent{
				EmployeeID: employeeID,
				Status:     string(status),
				Deviation:  deviation,
			},
		})
	}

	slog.Debug("live status changed", "employee_id", employeeID, "status", status, "deviation", deviation)
	return nil
}
