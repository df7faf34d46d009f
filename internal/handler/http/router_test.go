package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/geofence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	employeesvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/employee"
	payrollsvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/payroll"
	punchsvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/punch"
	schedulesvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/servicetest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var office = geofence.Site{Name: "hq", Latitude: -24.005, Longitude: -46.4124, RadiusMeters: 100}

type stubNotifications struct {
	unread int
}

func (s *stubNotifications) QueueNotification(context.Context, notification.CreateNotificationRequest) error {
	return nil
}

func (s *stubNotifications) GetNotifications(_ context.Context, _ string, page, pageSize int, _ bool) (*notification.NotificationListResponse, error) {
	return &notification.NotificationListResponse{Notifications: []notification.NotificationResponse{}, Page: page, PageSize: pageSize, UnreadCount: s.unread}, nil
}

func (s *stubNotifications) GetUnreadCount(context.Context, string) (int, error) {
	return s.unread, nil
}

func (s *stubNotifications) MarkAsRead(_ context.Context, _ string, req notification.MarkAsReadRequest) error {
	return req.Validate()
}

func (s *stubNotifications) MarkAllAsRead(context.Context, string) error { return nil }

func (s *stubNotifications) Stop() {}

type testAPI struct {
	router  *chi.Mux
	jwt     jwt.Service
	hub     *sse.Hub
	punches *servicetest.Punches
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	employees := servicetest.NewEmployees(
		employee.Employee{ID: "emp-1", Name: "Ana", Role: employee.RoleEmployee},
		employee.Employee{ID: "sup-1", Name: "Bruno", Role: employee.RoleSupervisor},
	)
	punches := servicetest.NewPunches()
	weeks := servicetest.NewWeeks()
	periods := servicetest.NewPeriods()
	tx := &servicetest.Transactor{}
	hub := sse.NewHub()
	now := func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

	jwtService := jwt.NewJWTService("test-secret", "1h")
	payrollService := payrollsvc.NewPayrollService(tx, periods, punches, employees, weeks, payrollsvc.Config{Now: now})
	statusService := employeesvc.NewStatusService(employees, hub)
	punchService := punchsvc.NewPunchService(punches, employees, weeks, statusService, payrollService, punchsvc.Config{
		Fence: geofence.NewFence(office),
		Now:   now,
	})
	scheduleService := schedulesvc.NewScheduleService(tx, weeks, employees, time.UTC, now)

	router := NewRouter(RouterConfig{}, jwtService, Handlers{
		Punch:        NewPunchHandler(punchService),
		Schedule:     NewScheduleHandler(scheduleService),
		Payroll:      NewPayrollHandler(payrollService),
		Report:       NewReportHandler(payrollService),
		Employee:     NewEmployeeHandler(statusService),
		Notification: NewNotificationHandler(&stubNotifications{unread: 2}, jwtService, hub),
	})

	return &testAPI{router: router, jwt: jwtService, hub: hub, punches: punches}
}

func (a *testAPI) token(t *testing.T, employeeID string, role employee.Role) string {
	t.Helper()
	tok, _, err := a.jwt.GenerateAccessToken(employeeID, role)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func location(lat, lon float64) map[string]interface{} {
	return map[string]interface{}{"latitude": lat, "longitude": lon}
}

func TestRecordPunch(t *testing.T) {
	api := newTestAPI(t)
	emp := api.token(t, "emp-1", employee.RoleEmployee)

	tests := []struct {
		name       string
		token      string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no token",
			body:       map[string]interface{}{"type": "arrival", "location": location(office.Latitude, office.Longitude)},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "missing fields",
			token:      emp,
			body:       map[string]interface{}{},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   response.CodeMissingFields,
		},
		{
			name:       "location without longitude",
			token:      emp,
			body:       map[string]interface{}{"type": "arrival", "location": map[string]interface{}{"latitude": office.Latitude}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   response.CodeMissingFields,
		},
		{
			name:       "out of range",
			token:      emp,
			body:       map[string]interface{}{"type": "arrival", "location": location(office.Latitude+0.01, office.Longitude)},
			wantStatus: http.StatusForbidden,
			wantCode:   response.CodeOutOfRange,
		},
		{
			name:       "unknown employee",
			token:      api.token(t, "ghost", employee.RoleEmployee),
			body:       map[string]interface{}{"type": "arrival", "location": location(office.Latitude, office.Longitude)},
			wantStatus: http.StatusNotFound,
			wantCode:   response.CodeEmployeeNotFound,
		},
		{
			name:       "accepted",
			token:      emp,
			body:       map[string]interface{}{"type": "arrival", "location": location(office.Latitude, office.Longitude)},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate",
			token:      emp,
			body:       map[string]interface{}{"type": "arrival", "location": location(office.Latitude, office.Longitude)},
			wantStatus: http.StatusConflict,
			wantCode:   response.CodeDuplicatePunch,
		},
	}

	// Cases run in order: "duplicate" relies on "accepted"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/v1/punches", tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			resp := decode(t, rec)
			if tt.wantCode == "" {
				assert.True(t, resp.Success)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	assert.Equal(t, 1, api.punches.Len())
}

func TestRecordPunch_OutOfRangeCarriesDistance(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/api/v1/punches", api.token(t, "emp-1", employee.RoleEmployee),
		map[string]interface{}{"type": "arrival", "location": location(office.Latitude+0.01, office.Longitude)})

	require.Equal(t, http.StatusForbidden, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "hq", resp.Error.Details["site"])
	assert.NotEmpty(t, resp.Error.Details["distance_meters"])
}

func TestSupervisorRoutes(t *testing.T) {
	api := newTestAPI(t)
	emp := api.token(t, "emp-1", employee.RoleEmployee)
	sup := api.token(t, "sup-1", employee.RoleSupervisor)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/punches"},
		{http.MethodGet, "/api/v1/payroll"},
		{http.MethodGet, "/api/v1/employees/status"},
		{http.MethodGet, "/api/v1/schedules/employees/emp-1"},
		{http.MethodGet, "/api/v1/reports/employees/emp-1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, api.do(t, tt.method, tt.path, emp, nil).Code)
			assert.Equal(t, http.StatusOK, api.do(t, tt.method, tt.path, sup, nil).Code)
		})
	}
}

func TestScheduleAndReportFlow(t *testing.T) {
	api := newTestAPI(t)
	emp := api.token(t, "emp-1", employee.RoleEmployee)
	sup := api.token(t, "sup-1", employee.RoleSupervisor)

	rec := api.do(t, http.MethodPut, "/api/v1/schedules/days", sup, map[string]interface{}{
		"employee_id": "emp-1", "date": "2025-03-10", "start": "08:00", "end": "17:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/schedules/today", emp, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"start":"08:00"`)

	rec = api.do(t, http.MethodPost, "/api/v1/schedules/recurrence", sup, map[string]interface{}{
		"employee_id": "emp-1", "week_of": "2025-03-10", "rrule": "FREQ=SOMETIMES", "start": "08:00", "end": "17:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/reports/me", emp, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hours_worked":"0h 00min"`)
}

func TestPayrollRecompute_Validation(t *testing.T) {
	api := newTestAPI(t)
	sup := api.token(t, "sup-1", employee.RoleSupervisor)

	rec := api.do(t, http.MethodPost, "/api/v1/payroll/recompute", sup, map[string]interface{}{"employee_id": "emp-1", "date": "2025-13-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/payroll/recompute", sup, map[string]interface{}{"employee_id": "emp-1", "date": "2025-03-15"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestExportXLSX(t *testing.T) {
	api := newTestAPI(t)
	sup := api.token(t, "sup-1", employee.RoleSupervisor)

	rec := api.do(t, http.MethodGet, "/api/v1/reports/employees/emp-1/xlsx?month=3&year=2025", sup, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "timesheet-emp-1-2025-03.xlsx")
	assert.Equal(t, "PK", rec.Body.String()[:2], "xlsx is a zip archive")

	rec = api.do(t, http.MethodGet, "/api/v1/reports/employees/emp-1/xlsx?month=13&year=2025", sup, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNotifications(t *testing.T) {
	api := newTestAPI(t)
	emp := api.token(t, "emp-1", employee.RoleEmployee)

	rec := api.do(t, http.MethodGet, "/api/v1/notifications/unread-count", emp, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread_count":2`)

	rec = api.do(t, http.MethodPost, "/api/v1/notifications/read", emp, map[string]interface{}{"notification_ids": []string{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/notifications/read-all", emp, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStream(t *testing.T) {
	api := newTestAPI(t)

	t.Run("rejects access tokens", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/v1/stream?token="+api.token(t, "emp-1", employee.RoleEmployee), "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("delivers events", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/stream/token", api.token(t, "emp-1", employee.RoleEmployee), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var envelope struct {
			Data notification.StreamTokenResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

		srv := httptest.NewServer(api.router)
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/stream?token="+envelope.Data.Token, nil)
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		lines := bufio.NewScanner(resp.Body)
		next := func() string {
			require.True(t, lines.Scan())
			return lines.Text()
		}

		assert.Equal(t, "event: connected", next())
		next()
		next()

		require.Eventually(t, func() bool { return api.hub.SubscriberCount("emp-1") == 1 }, time.Second, 5*time.Millisecond)
		api.hub.Publish("emp-1", sse.Event{EmployeeID: "emp-1", Event: "notification", Data: map[string]string{"title": "Shift starting"}})
		assert.Equal(t, "event: notification", next())
		assert.Equal(t, `data: {"title":"Shift starting"}`, next())
		next()

		api.hub.Broadcast(sse.Event{Event: employeesvc.EventStatusChanged, Data: map[string]string{"status": "Active"}})
		assert.Equal(t, "event: status_changed", next())
	})
}
