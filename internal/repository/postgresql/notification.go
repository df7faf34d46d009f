package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, employee_id, type, title, body, is_read, read_at, created_at`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n   notification.Notification
		typ string
	)
	if err := row.Scan(&n.ID, &n.EmployeeID, &typ, &n.Title, &n.Body, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = notification.NotificationType(typ)
	return &n, nil
}

func prepareNotification(n *notification.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)
	prepareNotification(n)

	query := `
		INSERT INTO notifications (id, employee_id, type, title, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query, n.ID, n.EmployeeID, string(n.Type), n.Title, n.Body, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// CreateBatch inserts all notifications with one multi-row statement
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	const cols = 7
	valueStrings := make([]string, 0, len(notifications))
	valueArgs := make([]interface{}, 0, len(notifications)*cols)

	for i, n := range notifications {
		prepareNotification(n)

		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		valueArgs = append(valueArgs, n.ID, n.EmployeeID, string(n.Type), n.Title, n.Body, n.IsRead, n.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications (id, employee_id, type, title, body, is_read, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}

	return nil
}

// ListByEmployee returns one page of an employee's notifications, newest first
func (r *notificationRepository) ListByEmployee(ctx context.Context, employeeID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	q := GetQuerier(ctx, r.db)

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	whereClause := "employee_id = $1"
	if unreadOnly {
		whereClause += " AND is_read = false"
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+whereClause, employeeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, employeeID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, total, rows.Err()
}

// GetUnreadCount returns the count of unread notifications for an employee
func (r *notificationRepository) GetUnreadCount(ctx context.Context, employeeID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE employee_id = $1 AND is_read = false`, employeeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAsRead only touches rows owned by employeeID; foreign ids are ignored.
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, employeeID string) error {
	if len(ids) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE employee_id = $2 AND id = ANY($3) AND is_read = false
	`

	if _, err := q.Exec(ctx, query, time.Now().UTC(), employeeID, ids); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	return nil
}

// MarkAllAsRead marks all notifications as read for an employee
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE employee_id = $2 AND is_read = false
	`

	if _, err := q.Exec(ctx, query, time.Now().UTC(), employeeID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return nil
}
