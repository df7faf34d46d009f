package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
)

// NotificationHandler defines the notification handler interface
type NotificationHandler interface {
	// Notifications
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)

	// SSE
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
	hub          *sse.Hub
	keepalive    time.Duration
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service, hub *sse.Hub) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
		hub:          hub,
		keepalive:    30 * time.Second,
	}
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// List returns paginated notifications for the authenticated employee
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	page := getIntQueryParam(r, "page", 1)
	pageSize := getIntQueryParam(r, "page_size", 20)
	unreadOnly := getBoolQueryParam(r, "unread_only", false)

	result, err := h.notifService.GetNotifications(r.Context(), id.EmployeeID, page, pageSize, unreadOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	count, err := h.notifService.GetUnreadCount(r.Context(), id.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, notification.UnreadCountResponse{UnreadCount: count})
}

func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	var req notification.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.notifService.MarkAsRead(r.Context(), id.EmployeeID, req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Notifications marked as read", nil)
}

func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	if err := h.notifService.MarkAllAsRead(r.Context(), id.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "All notifications marked as read", nil)
}

// GetStreamToken issues the short-lived token for GET /stream
func (h *notificationHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(id.EmployeeID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, notification.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes the caller's notifications and every live-status change.
// EventSource cannot send headers, so the token comes as a query parameter.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	employeeID, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(employeeID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"employee_id\":%q}\n\n", employeeID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
