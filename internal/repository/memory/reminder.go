// Package memory holds process-local stores for single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/reminder"
)

type reminderKey struct {
	employeeID string
	kind       reminder.Kind
	date       string
}

// ReminderStore forgets everything on restart. Entries older than the retention are pruned on MarkSent.
type ReminderStore struct {
	mu        sync.Mutex
	sent      map[reminderKey]time.Time
	retention time.Duration
}

func NewReminderStore(retention time.Duration) *ReminderStore {
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	return &ReminderStore{
		sent:      make(map[reminderKey]time.Time),
		retention: retention,
	}
}

var _ reminder.Store = (*ReminderStore)(nil)

func (s *ReminderStore) WasSent(_ context.Context, employeeID string, kind reminder.Kind, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sent[reminderKey{employeeID, kind, date.Format("2006-01-02")}]
	return ok, nil
}

func (s *ReminderStore) MarkSent(_ context.Context, employeeID string, kind reminder.Kind, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, at := range s.sent {
		if now.Sub(at) > s.retention {
			delete(s.sent, k)
		}
	}
	s.sent[reminderKey{employeeID, kind, date.Format("2006-01-02")}] = now
	return nil
}

// Len reports how many reminders are remembered.
func (s *ReminderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
