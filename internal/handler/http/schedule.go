package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	// Employee
	Today(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)

	// Supervisor
	ListByEmployee(w http.ResponseWriter, r *http.Request)
	UpsertDay(w http.ResponseWriter, r *http.Request)
	ApplyRecurrence(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
	}
}

func (h *scheduleHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.Today(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *scheduleHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListMine(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *scheduleHandlerImpl) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	result, err := h.scheduleService.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *scheduleHandlerImpl) UpsertDay(w http.ResponseWriter, r *http.Request) {
	var req schedule.UpsertDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.scheduleService.UpsertDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule day saved", result)
}

func (h *scheduleHandlerImpl) ApplyRecurrence(w http.ResponseWriter, r *http.Request) {
	var req schedule.ApplyRecurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.scheduleService.ApplyRecurrence(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Recurrence applied", result)
}

func (h *scheduleHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.scheduleService.Delete(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Week schedule deleted", nil)
}
