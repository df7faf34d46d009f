package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
)

type PunchHandler interface {
	Record(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListAll(w http.ResponseWriter, r *http.Request)
}

type punchHandlerImpl struct {
	punchService punch.PunchService
}

func NewPunchHandler(punchService punch.PunchService) PunchHandler {
	return &punchHandlerImpl{punchService: punchService}
}

// Record implements PunchHandler.
func (h *punchHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	var req punch.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.punchService.Record(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", result)
}

// ListMine implements PunchHandler.
func (h *punchHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.punchService.ListMine(r.Context(), punchFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListAll implements PunchHandler.
func (h *punchHandlerImpl) ListAll(w http.ResponseWriter, r *http.Request) {
	filter := punchFilterFromQuery(r)
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	result, err := h.punchService.ListAll(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func punchFilterFromQuery(r *http.Request) punch.ListFilter {
	filter := punch.ListFilter{}
	q := r.URL.Query()

	if startDate := q.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := q.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if typ := q.Get("type"); typ != "" {
		filter.Type = &typ
	}

	// Invalid numbers fall through to Validate
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = l
	}
	return filter
}
