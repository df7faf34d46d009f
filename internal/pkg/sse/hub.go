package sse

import (
	"sync"
)

// Event is one server-sent event. An empty EmployeeID marks a broadcast.
type Event struct {
	EmployeeID string
	Event      string
	Data       interface{}
}

// Hub fans events out to the open streams of each employee.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for an employee and returns its channel and cleanup function.
func (h *Hub) Subscribe(employeeID string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[employeeID][ch]; !ok {
				// Already closed by Close
				return
			}
			delete(h.subscribers[employeeID], ch)
			close(ch)
			if len(h.subscribers[employeeID]) == 0 {
				delete(h.subscribers, employeeID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to every stream of one employee.
func (h *Hub) Publish(employeeID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[employeeID] {
		select {
		case ch <- event:
		default:
			// Slow consumer, drop
		}
	}
}

// Broadcast sends an event to every open stream.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range h.subscribers {
		for ch := range subs {
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of open streams for an employee.
func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[employeeID])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

// Close ends every open stream. Later subscriptions get an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for employeeID, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, employeeID)
	}
}
