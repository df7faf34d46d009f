package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler interface {
	MyReport(w http.ResponseWriter, r *http.Request)
	EmployeeReport(w http.ResponseWriter, r *http.Request)
	ExportXLSX(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewReportHandler(payrollService payroll.PayrollService) ReportHandler {
	return &reportHandlerImpl{payrollService: payrollService}
}

// MyReport returns the caller's latest period formatted for display.
func (h *reportHandlerImpl) MyReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.Report(r.Context(), "")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *reportHandlerImpl) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.Report(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportXLSX renders into a buffer first so that errors still get a JSON envelope.
func (h *reportHandlerImpl) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	req := payroll.ExportRequest{EmployeeID: chi.URLParam(r, "employeeID")}
	req.Month, _ = strconv.Atoi(r.URL.Query().Get("month"))
	req.Year, _ = strconv.Atoi(r.URL.Query().Get("year"))

	var buf bytes.Buffer
	if err := h.payrollService.ExportXLSX(r.Context(), req, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("timesheet-%s-%04d-%02d.xlsx", req.EmployeeID, req.Year, req.Month)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
