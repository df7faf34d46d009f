package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
)

type PayrollHandler interface {
	ListMine(w http.ResponseWriter, r *http.Request)
	ListAll(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

func (h *payrollHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListMine(r.Context(), payrollFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListAll(w http.ResponseWriter, r *http.Request) {
	filter := payrollFilterFromQuery(r)
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	result, err := h.payrollService.ListAll(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.UpdateSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll settings updated", result)
}

func (h *payrollHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	var req payroll.RecomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.RecomputeMonth(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll recomputed", result)
}

func payrollFilterFromQuery(r *http.Request) payroll.ListFilter {
	filter := payroll.ListFilter{}
	q := r.URL.Query()

	if y, err := strconv.Atoi(q.Get("year")); err == nil {
		filter.Year = &y
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = l
	}
	return filter
}
