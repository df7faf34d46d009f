package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reminder"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
)

type reminderStore struct {
	db *database.DB
}

// NewReminderStore keeps sent reminders in reminders_sent so restarts do not repeat them.
func NewReminderStore(db *database.DB) reminder.Store {
	return &reminderStore{db: db}
}

func (s *reminderStore) WasSent(ctx context.Context, employeeID string, kind reminder.Kind, date time.Time) (bool, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminders_sent
			WHERE employee_id = $1 AND kind = $2 AND local_date = $3
		)
	`

	var sent bool
	if err := q.QueryRow(ctx, query, employeeID, string(kind), dayOf(date)).Scan(&sent); err != nil {
		return false, fmt.Errorf("failed to check reminder: %w", err)
	}
	return sent, nil
}

func (s *reminderStore) MarkSent(ctx context.Context, employeeID string, kind reminder.Kind, date time.Time) error {
	q := GetQuerier(ctx, s.db)

	query := `
		INSERT INTO reminders_sent (employee_id, kind, local_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, kind, local_date) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, employeeID, string(kind), dayOf(date)); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
