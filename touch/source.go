// Package touch carries directional touch events from the sensing side to
// the carousel.
package touch

import (
	"context"
	"time"
)

// Event is one directional touch. Left and Right are mutually exclusive in practice.
type Event struct {
	Left  bool
	Right bool
}

// Source is a depth-1 queue of touch events with a single consumer
type Source struct {
	events chan Event
}

// NewSource creates an empty source
func NewSource() *Source {
	return &Source{events: make(chan Event, 1)}
}

// TryPublish enqueues ev without blocking. It reports false if the queue is full
// and the event was discarded. Safe to call from an interrupt handler.
func (s *Source) TryPublish(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Next waits up to timeout for an event. ok is false when the wait timed out.
func (s *Source) Next(ctx context.Context, timeout time.Duration) (ev Event, ok bool, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev = <-s.events:
		return ev, true, nil
	case <-timer.C:
		return Event{}, false, nil
	case <-ctx.Done():
		return Event{}, false, ctx.Err()
	}
}
