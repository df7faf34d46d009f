package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired accepts only verified access tokens carrying an employee_id claim.
// It runs after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != jwt.TokenTypeAccess {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if _, err := auth.FromContext(r.Context()); err != nil {
			response.HandleError(w, auth.ErrMissingEmployeeClaim)
			return
		}

		next.ServeHTTP(w, r)
	})
}
