package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// EventNotification is the SSE event name of a delivered reminder.
const EventNotification = "notification"

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config
	now    func() time.Time

	queue    chan notification.CreateNotificationRequest
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService starts the batching workers. Call Stop to flush them.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config) notification.Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		now:    time.Now,
		queue:  make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started",
		"workers", cfg.WorkerCount,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval,
	)

	return s
}

func (s *service) newNotification(req notification.CreateNotificationRequest) *notification.Notification {
	return &notification.Notification{
		ID:         uuid.New().String(),
		EmployeeID: req.EmployeeID,
		Type:       req.Type,
		Title:      req.Title,
		Body:       req.Body,
		CreatedAt:  s.now().UTC(),
	}
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = s.newNotification(req)
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			slog.Error("failed to insert notification batch", "worker", id, "size", len(notifications), "error", err)
		} else {
			slog.Debug("inserted notification batch", "worker", id, "size", len(notifications))
			for _, n := range notifications {
				s.publish(n)
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain what was queued before Stop
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *service) publish(n *notification.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(n.EmployeeID, sse.Event{
		EmployeeID: n.EmployeeID,
		Event:      EventNotification,
		Data:       toResponse(n),
	})
}

// QueueNotification implements notification.Notifier. A full queue falls back to a direct insert.
func (s *service) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	select {
	case s.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return s.directInsert(ctx, req)
	}
}

func (s *service) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	n := s.newNotification(req)
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(n)
	return nil
}

func toResponse(n *notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// GetNotifications retrieves paginated notifications for an employee
func (s *service) GetNotifications(ctx context.Context, employeeID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.repo.ListByEmployee(ctx, employeeID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = toResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *service) GetUnreadCount(ctx context.Context, employeeID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, employeeID)
}

func (s *service) MarkAsRead(ctx context.Context, employeeID string, req notification.MarkAsReadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, req.NotificationIDs, employeeID)
}

func (s *service) MarkAllAsRead(ctx context.Context, employeeID string) error {
	return s.repo.MarkAllAsRead(ctx, employeeID)
}

// Stop flushes every worker's pending batch and waits for them. Safe to call twice.
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("notification service stopped")
	})
}
