package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
)

// RequireSupervisor requires the supervisor or admin role
func RequireSupervisor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.FromContext(r.Context())
		if err != nil || !id.IsSupervisor() {
			response.HandleError(w, auth.ErrSupervisorAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
