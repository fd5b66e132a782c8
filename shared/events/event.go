// Package events streams committed audit entries to subscribers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TypeAuditAppended is the event type emitted for every committed audit entry
const TypeAuditAppended = "audit.appended"

// Event is the wire form of a committed audit entry
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"event_type"`
	UnitOfWork uuid.UUID      `json:"uow_id"`
	AuditID    uint           `json:"audit_id"`
	Actor      string         `json:"user"`
	Action     string         `json:"action"`
	Table      string         `json:"table_name"`
	RowID      uint           `json:"row_id"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"timestamp"`
}

// Publisher delivers events outside the database. Publish must not block on the network.
type Publisher interface {
	Publish(event Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error {
	return nil
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
