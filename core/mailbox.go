package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mailbox is a single-slot, single-consumer handoff with overwrite semantics.
//
// Post never blocks: a value that was not consumed before the next Post is
// replaced and counted as dropped. This is lossy signaling, not a queue; the
// consumer only ever sees the most recent value.
type Mailbox[T any] struct {
	mu      sync.Mutex // serializes posters
	slot    chan T
	dropped atomic.Uint64
	posted  atomic.Uint64
}

// NewMailbox creates an empty mailbox
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{slot: make(chan T, 1)}
}

// Post stores v, replacing any unconsumed value.
// It reports whether an earlier value was overwritten.
func (m *Mailbox[T]) Post(v T) (overwrote bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.slot:
		overwrote = true
		m.dropped.Add(1)
	default:
	}
	m.slot <- v // cannot block: slot drained above and posters are serialized
	m.posted.Add(1)
	return overwrote
}

// Wait blocks until a value is available and consumes it
func (m *Mailbox[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-m.slot:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Dropped returns how many values were overwritten before being consumed
func (m *Mailbox[T]) Dropped() uint64 {
	return m.dropped.Load()
}

// Posted returns the lifetime number of posts
func (m *Mailbox[T]) Posted() uint64 {
	return m.posted.Load()
}
