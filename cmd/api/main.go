package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reminder"
	appHTTP "github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/geofence"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
	employeeService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/employee"
	notificationService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/payroll"
	punchService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/punch"
	scheduleService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/timesheet"
	"github.com/go-chi/httplog/v3"
	"github.com/shopspring/decimal"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeclock-backend"),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	loc := cfg.Location()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	punchRepo := postgresql.NewPunchRepository(db)
	weekRepo := postgresql.NewWeekScheduleRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	transactor := postgresql.NewTransactor(db)

	var reminderStore reminder.Store
	switch cfg.Watcher.ReminderStore {
	case "memory":
		reminderStore = memory.NewReminderStore(0)
	case "postgres":
		reminderStore = postgresql.NewReminderStore(db)
	default:
		return fmt.Errorf("unsupported reminder store: %s", cfg.Watcher.ReminderStore)
	}

	hourlyRate, err := decimal.NewFromString(cfg.Payroll.DefaultHourlyRate)
	if err != nil {
		return fmt.Errorf("invalid default hourly rate: %w", err)
	}
	overtimeFactor, err := decimal.NewFromString(cfg.Payroll.OvertimeFactor)
	if err != nil {
		return fmt.Errorf("invalid overtime factor: %w", err)
	}

	sites := make([]geofence.Site, 0, len(cfg.Geofence.Sites))
	for _, s := range cfg.Geofence.Sites {
		sites = append(sites, geofence.Site{
			Name:         s.Name,
			Latitude:     s.Latitude,
			Longitude:    s.Longitude,
			RadiusMeters: s.RadiusMeters,
		})
	}

	hub := sse.NewHub()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	statusSvc := employeeService.NewStatusService(employeeRepo, hub)
	payrollSvc := payrollService.NewPayrollService(transactor, payrollRepo, punchRepo, employeeRepo, weekRepo, payrollService.Config{
		Location:          loc,
		DefaultHourlyRate: hourlyRate,
		OvertimeFactor:    overtimeFactor,
	})
	punchSvc := punchService.NewPunchService(punchRepo, employeeRepo, weekRepo, statusSvc, payrollSvc, punchService.Config{
		Fence:    geofence.NewFence(sites...),
		Location: loc,
		Grace: timesheet.Grace{
			Late:     cfg.Attendance.LateGrace,
			Overtime: cfg.Attendance.OvertimeGrace,
		},
	})
	scheduleSvc := scheduleService.NewScheduleService(transactor, weekRepo, employeeRepo, loc, nil)
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{})
	defer notifSvc.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{Logger: logger, AllowedOrigins: cfg.App.AllowedOrigins},
		JWTService,
		appHTTP.Handlers{
			Punch:        appHTTP.NewPunchHandler(punchSvc),
			Schedule:     appHTTP.NewScheduleHandler(scheduleSvc),
			Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
			Report:       appHTTP.NewReportHandler(payrollSvc),
			Employee:     appHTTP.NewEmployeeHandler(statusSvc),
			Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService, hub),
		},
	)

	scheduler := cron.NewScheduler()
	scheduler.Register(
		cron.NewScheduleWatcher(employeeRepo, weekRepo, punchRepo, notifSvc, reminderStore, cron.WatcherConfig{
			Interval:      cfg.Watcher.Interval,
			Lead:          cfg.Watcher.ReminderLead,
			LunchDuration: cfg.Watcher.LunchDuration,
			Concurrency:   cfg.Watcher.Concurrency,
			Location:      loc,
		}),
		cron.NewDailyStatusJob(employeeRepo, weekRepo, punchRepo, statusSvc, 0, loc),
	)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("background jobs started", "jobs", scheduler.Jobs())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Open SSE streams only end when their request context is cancelled
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
