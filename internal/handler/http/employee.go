package http

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
)

// EmployeeHandler serves the live status board.
type EmployeeHandler interface {
	ListStatuses(w http.ResponseWriter, r *http.Request)
	MyStatus(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	statusService employee.StatusService
}

func NewEmployeeHandler(statusService employee.StatusService) EmployeeHandler {
	return &employeeHandlerImpl{statusService: statusService}
}

func (h *employeeHandlerImpl) ListStatuses(w http.ResponseWriter, r *http.Request) {
	result, err := h.statusService.ListStatuses(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *employeeHandlerImpl) MyStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.statusService.MyStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
