package telemetry

import (
	"sync"
	"time"
)

// EventBuffer keeps the most recent events for Last-Event-ID replay.
// Events older than the retention window are discarded.
type EventBuffer struct {
	mu        sync.RWMutex
	events    []Event
	capacity  int
	retention time.Duration
	now       func() time.Time
}

// NewEventBuffer creates a buffer. A non-positive retention keeps events
// until they are pushed out by capacity.
func NewEventBuffer(capacity int, retention time.Duration) *EventBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &EventBuffer{
		events:    make([]Event, 0, capacity),
		capacity:  capacity,
		retention: retention,
		now:       time.Now,
	}
}

// AddEvent appends an event, evicting the oldest past capacity.
func (b *EventBuffer) AddEvent(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.at.IsZero() {
		e.at = b.now()
	}
	b.events = append(b.events, e)
	if len(b.events) > b.capacity {
		b.events = b.events[len(b.events)-b.capacity:]
	}
	b.expire()
}

// GetEventsAfter returns retained events with an ID above lastID.
func (b *EventBuffer) GetEventsAfter(lastID int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expire()

	var out []Event
	for _, e := range b.events {
		if e.ID > lastID {
			out = append(out, e)
		}
	}
	return out
}

// GetSize returns the number of retained events.
func (b *EventBuffer) GetSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expire()
	return len(b.events)
}

// GetCapacity returns the buffer capacity.
func (b *EventBuffer) GetCapacity() int {
	return b.capacity
}

// expire must be called with mu held.
func (b *EventBuffer) expire() {
	if b.retention <= 0 {
		return
	}
	cutoff := b.now().Add(-b.retention)
	i := 0
	for i < len(b.events) && b.events[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = append(b.events[:0], b.events[i:]...)
	}
}
