// Package servicetest provides in-memory repositories for service tests.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

// Transactor runs fn directly. Err, when set, is returned instead of calling fn.
type Transactor struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.mu.Lock()
	t.Calls++
	err := t.Err
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(ctx)
}

// ========== EMPLOYEES ==========

type Employees struct {
	mu   sync.Mutex
	byID map[string]employee.Employee
}

func NewEmployees(emps ...employee.Employee) *Employees {
	e := &Employees{byID: make(map[string]employee.Employee)}
	for _, emp := range emps {
		if emp.LiveStatus == "" {
			emp.LiveStatus = employee.StatusInactive
		}
		e.byID[emp.ID] = emp
	}
	return e
}

func (e *Employees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.byID[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (e *Employees) ListAll(_ context.Context) ([]employee.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]employee.Employee, 0, len(e.byID))
	for _, emp := range e.byID {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (e *Employees) UpdateLiveStatus(_ context.Context, id string, status employee.LiveStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.byID[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	emp.LiveStatus = status
	e.byID[id] = emp
	return nil
}

// Status returns the stored live status of id.
func (e *Employees) Status(id string) employee.LiveStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.byID[id].LiveStatus
}

// ========== PUNCHES ==========

type Punches struct {
	mu     sync.Mutex
	seq    int
	stored []punch.Punch
}

func NewPunches(existing ...punch.Punch) *Punches {
	p := &Punches{}
	for _, e := range existing {
		_, _ = p.Create(context.Background(), e)
	}
	return p
}

func (p *Punches) Create(_ context.Context, in punch.Punch) (punch.Punch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.stored {
		if s.EmployeeID == in.EmployeeID && s.Type == in.Type && s.LocalDate.Equal(in.LocalDate) {
			return punch.Punch{}, punch.ErrDuplicatePunch
		}
	}
	p.seq++
	if in.ID == "" {
		in.ID = fmt.Sprintf("punch-%d", p.seq)
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = in.PunchedAt
	}
	p.stored = append(p.stored, in)
	return in, nil
}

func (p *Punches) ExistsForDay(_ context.Context, employeeID string, t punch.Type, localDate time.Time) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.stored {
		if s.EmployeeID == employeeID && s.Type == t && s.LocalDate.Equal(localDate) {
			return true, nil
		}
	}
	return false, nil
}

func (p *Punches) ListByEmployeeDates(_ context.Context, employeeID string, from, to time.Time) ([]punch.Punch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []punch.Punch
	for _, s := range p.stored {
		if s.EmployeeID == employeeID && !s.LocalDate.Before(from) && !s.LocalDate.After(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PunchedAt.Before(out[j].PunchedAt) })
	return out, nil
}

func (p *Punches) List(_ context.Context, filter punch.ListFilter) ([]punch.Punch, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []punch.Punch
	for _, s := range p.stored {
		if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Type != nil && string(s.Type) != *filter.Type {
			continue
		}
		date := s.LocalDate.Format("2006-01-02")
		if filter.StartDate != nil && *filter.StartDate != "" && date < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && date > *filter.EndDate {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PunchedAt.After(matched[j].PunchedAt) })

	total := int64(len(matched))
	from := (filter.Page - 1) * filter.Limit
	if from > len(matched) {
		from = len(matched)
	}
	to := from + filter.Limit
	if to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], total, nil
}

// Len returns how many punches are stored.
func (p *Punches) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stored)
}

// ========== WEEK SCHEDULES ==========

type Weeks struct {
	mu   sync.Mutex
	seq  int
	byID map[string]schedule.WeekSchedule
}

func NewWeeks(existing ...schedule.WeekSchedule) *Weeks {
	w := &Weeks{byID: make(map[string]schedule.WeekSchedule)}
	for _, ws := range existing {
		_, _ = w.Upsert(context.Background(), ws)
	}
	return w
}

func (w *Weeks) GetByID(_ context.Context, id string) (schedule.WeekSchedule, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.byID[id]
	if !ok {
		return schedule.WeekSchedule{}, schedule.ErrScheduleNotFound
	}
	return ws, nil
}

func (w *Weeks) GetByEmployeeWeek(_ context.Context, employeeID string, weekStart time.Time) (schedule.WeekSchedule, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ws := range w.byID {
		if ws.EmployeeID == employeeID && ws.WeekStart.Equal(weekStart) {
			return ws, nil
		}
	}
	return schedule.WeekSchedule{}, schedule.ErrScheduleNotFound
}

func (w *Weeks) Upsert(_ context.Context, ws schedule.WeekSchedule) (schedule.WeekSchedule, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, existing := range w.byID {
		if existing.EmployeeID == ws.EmployeeID && existing.WeekStart.Equal(ws.WeekStart) {
			ws.ID = id
			ws.CreatedAt = existing.CreatedAt
			w.byID[id] = ws
			return ws, nil
		}
	}
	w.seq++
	if ws.ID == "" {
		ws.ID = fmt.Sprintf("week-%d", w.seq)
	}
	w.byID[ws.ID] = ws
	return ws, nil
}

func (w *Weeks) ListByEmployee(_ context.Context, employeeID string) ([]schedule.WeekSchedule, error) {
	return w.filter(func(ws schedule.WeekSchedule) bool { return ws.EmployeeID == employeeID }), nil
}

func (w *Weeks) ListByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) ([]schedule.WeekSchedule, error) {
	return w.filter(func(ws schedule.WeekSchedule) bool {
		return ws.EmployeeID == employeeID && !ws.WeekStart.After(to) && !ws.WeekEnd.Before(from)
	}), nil
}

func (w *Weeks) ListCovering(_ context.Context, date time.Time) ([]schedule.WeekSchedule, error) {
	return w.filter(func(ws schedule.WeekSchedule) bool { return ws.Covers(date) }), nil
}

func (w *Weeks) Delete(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byID[id]; !ok {
		return schedule.ErrScheduleNotFound
	}
	delete(w.byID, id)
	return nil
}

func (w *Weeks) filter(keep func(schedule.WeekSchedule) bool) []schedule.WeekSchedule {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []schedule.WeekSchedule
	for _, ws := range w.byID {
		if keep(ws) {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out
}

// ========== PAYROLL PERIODS ==========

// Periods tracks how many recomputes overlap between reading a period and writing it back.
type Periods struct {
	mu          sync.Mutex
	seq         int
	byKey       map[string]payroll.Period
	inFlight    int
	MaxInFlight int
	Locks       int
	Upserts     int
	// UpsertErr, when set, fails every Upsert
	UpsertErr error
	// Hold delays Upsert so overlapping recomputes would be observable
	Hold time.Duration
}

func NewPeriods() *Periods {
	return &Periods{byKey: make(map[string]payroll.Period)}
}

func periodKey(employeeID string, start time.Time) string {
	return employeeID + "|" + start.Format("2006-01-02")
}

func (p *Periods) GetByEmployeePeriod(_ context.Context, employeeID string, start, _ time.Time) (payroll.Period, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight++
	if p.inFlight > p.MaxInFlight {
		p.MaxInFlight = p.inFlight
	}
	period, ok := p.byKey[periodKey(employeeID, start)]
	if !ok {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return period, nil
}

func (p *Periods) Upsert(_ context.Context, period payroll.Period) (payroll.Period, error) {
	if p.Hold > 0 {
		time.Sleep(p.Hold)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	p.Upserts++
	if p.UpsertErr != nil {
		return payroll.Period{}, p.UpsertErr
	}
	key := periodKey(period.EmployeeID, period.PeriodStart)
	if existing, ok := p.byKey[key]; ok {
		period.ID = existing.ID
	}
	if period.ID == "" {
		p.seq++
		period.ID = fmt.Sprintf("period-%d", p.seq)
	}
	p.byKey[key] = period
	return period, nil
}

func (p *Periods) LockEmployeePeriod(_ context.Context, _ string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Locks++
	return nil
}

func (p *Periods) GetLatestByEmployee(_ context.Context, employeeID string) (payroll.Period, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var (
		latest payroll.Period
		found  bool
	)
	for _, period := range p.byKey {
		if period.EmployeeID == employeeID && (!found || period.PeriodStart.After(latest.PeriodStart)) {
			latest, found = period, true
		}
	}
	if !found {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return latest, nil
}

func (p *Periods) List(_ context.Context, filter payroll.ListFilter) ([]payroll.Period, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []payroll.Period
	for _, period := range p.byKey {
		if filter.EmployeeID != nil && period.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Year != nil && period.PeriodStart.Year() != *filter.Year {
			continue
		}
		out = append(out, period)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	return out, int64(len(out)), nil
}

// Stored returns the stored period of the month starting at start.
func (p *Periods) Stored(employeeID string, start time.Time) (payroll.Period, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	period, ok := p.byKey[periodKey(employeeID, start)]
	return period, ok
}

// ========== NOTIFICATIONS ==========

// Notifier records queued notifications.
type Notifier struct {
	mu   sync.Mutex
	Sent []notification.CreateNotificationRequest
	Err  error
}

func (n *Notifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, req)
	return nil
}

// Requests returns a copy of the queued notifications.
func (n *Notifier) Requests() []notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.CreateNotificationRequest(nil), n.Sent...)
}
