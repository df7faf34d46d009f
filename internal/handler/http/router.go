package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries what the router needs besides the handlers.
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Punch        PunchHandler
	Schedule     ScheduleHandler
	Payroll      PayrollHandler
	Report       ReportHandler
	Employee     EmployeeHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
			// The SSE stream is long-lived
			Skip: func(req *http.Request, respStatus int) bool {
				return req.URL.Path == "/api/v1/stream"
			},
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Authenticated by its own short-lived query token
		r.Get("/stream", h.Notification.Stream)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/punches", func(r chi.Router) {
				r.Post("/", h.Punch.Record)
				r.Get("/me", h.Punch.ListMine)
				r.With(middleware.RequireSupervisor).Get("/", h.Punch.ListAll)
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/me", h.Schedule.ListMine)
				r.Get("/today", h.Schedule.Today)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.Get("/employees/{employeeID}", h.Schedule.ListByEmployee)
					r.Put("/days", h.Schedule.UpsertDay)
					r.Post("/recurrence", h.Schedule.ApplyRecurrence)
					r.Delete("/{id}", h.Schedule.Delete)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/me", h.Payroll.ListMine)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.Get("/", h.Payroll.ListAll)
					r.Put("/settings", h.Payroll.UpdateSettings)
					r.Post("/recompute", h.Payroll.Recompute)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/me", h.Report.MyReport)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSupervisor)
					r.Get("/employees/{employeeID}", h.Report.EmployeeReport)
					r.Get("/employees/{employeeID}/xlsx", h.Report.ExportXLSX)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/me/status", h.Employee.MyStatus)
				r.With(middleware.RequireSupervisor).Get("/status", h.Employee.ListStatuses)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
			})

			r.Post("/stream/token", h.Notification.GetStreamToken)
		})
	})
	return r
}
