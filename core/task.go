package core

import (
	"context"
	"sync/atomic"
)

// Task is a suspend/resume handle for one long-running goroutine.
//
// Go has no way to stop a goroutine from the outside, so suspension is
// cooperative: Suspend only marks the task, and the task parks the next time
// its own loop calls Checkpoint. Resume never blocks and is safe to call from
// an interrupt handler; resuming a task that is not suspended is a no-op.
type Task struct {
	name      string
	suspended atomic.Bool
	wake      chan struct{} // capacity 1, coalesces resumes
	trace     *Trace
}

// NewTask creates a running (not suspended) task handle.
// trace may be nil.
func NewTask(name string, trace *Trace) *Task {
	return &Task{
		name:  name,
		wake:  make(chan struct{}, 1),
		trace: trace,
	}
}

// Name returns the task name
func (t *Task) Name() string {
	return t.name
}

// Suspend marks the task suspended. It takes effect at the task's next Checkpoint.
func (t *Task) Suspend() {
	if t.suspended.CompareAndSwap(false, true) {
		t.trace.Record(EvtSuspend, t.name, 0)
	}
}

// Resume clears the suspended mark and wakes the task if it is parked.
func (t *Task) Resume() {
	if !t.suspended.CompareAndSwap(true, false) {
		return
	}
	select {
	case t.wake <- struct{}{}:
	default:
		// A wake token is already pending
	}
	t.trace.Record(EvtResume, t.name, 0)
}

// Suspended reports whether the task is currently marked suspended
func (t *Task) Suspended() bool {
	return t.suspended.Load()
}

// Checkpoint parks the calling goroutine while the task is suspended.
// Only the goroutine that owns the task may call it. It returns ctx.Err()
// if the context ends while parked.
func (t *Task) Checkpoint(ctx context.Context) error {
	for t.suspended.Load() {
		select {
		case <-t.wake:
			// Stale tokens are harmless, the flag is re-checked
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
