package core

import (
	"strconv"
	"time"
)

// DebugWriter is a function type for writing debug lines
type DebugWriter func(string)

// TraceEvent captures one coordination event for post-mortem analysis
type TraceEvent struct {
	Type    uint8         // Event type code (Evt*)
	Subject string        // Task or object the event concerns
	At      time.Duration // Time since the trace was created
	Value   uint32        // Context-dependent value
}

// Event type codes
const (
	EvtSubmit   = 1 // command enqueued (value: sequence)
	EvtComplete = 2 // completion posted (value: 1 ok, 0 failed)
	EvtDropped  = 3 // completion overwritten before it was consumed
	EvtSuspend  = 4 // task marked suspended
	EvtResume   = 5 // task resumed
	EvtSleep    = 6 // power state -> Sleeping
	EvtWake     = 7 // power state -> Awake
	EvtMotion   = 8 // motion interrupt
	EvtHalt     = 9 // fatal halt
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

// Trace is a fixed-size ring of coordination events.
// Record never blocks on I/O and is safe from interrupt context.
// A nil *Trace discards everything.
type Trace struct {
	start time.Time
	ring  [TraceRingSize]TraceEvent
	head  uint8 // Next write position
	count uint8
}

// NewTrace creates an empty trace ring
func NewTrace() *Trace {
	return &Trace{start: time.Now()}
}

// Record captures an event in the ring buffer
func (t *Trace) Record(eventType uint8, subject string, value uint32) {
	if t == nil {
		return
	}
	at := time.Since(t.start)

	state := enterCritical()
	defer exitCritical(state)

	idx := t.head
	t.ring[idx] = TraceEvent{
		Type:    eventType,
		Subject: subject,
		At:      at,
		Value:   value,
	}
	t.head = (idx + 1) % TraceRingSize
	if t.count < TraceRingSize {
		t.count++
	}
}

// Events returns the recorded events, oldest first
func (t *Trace) Events() []TraceEvent {
	if t == nil {
		return nil
	}
	state := enterCritical()
	defer exitCritical(state)

	out := make([]TraceEvent, 0, t.count)
	start := (t.head + TraceRingSize - t.count) % TraceRingSize
	for i := uint8(0); i < t.count; i++ {
		out = append(out, t.ring[(start+i)%TraceRingSize])
	}
	return out
}

// Dump writes the ring, oldest first, through w (call on halt)
func (t *Trace) Dump(w DebugWriter) {
	if t == nil || w == nil {
		return
	}

	w("[TRACE] === Coordination Trace Dump ===")
	for _, evt := range t.Events() {
		w("[TRACE] " + EventName(evt.Type) +
			" subject=" + evt.Subject +
			" at=" + evt.At.String() +
			" v=" + strconv.FormatUint(uint64(evt.Value), 10))
	}
	w("[TRACE] === End Dump ===")
}

// EventName returns the printable name of an event type code
func EventName(eventType uint8) string {
	switch eventType {
	case EvtSubmit:
		return "SUBMIT"
	case EvtComplete:
		return "COMPLETE"
	case EvtDropped:
		return "DROPPED!"
	case EvtSuspend:
		return "SUSPEND"
	case EvtResume:
		return "RESUME"
	case EvtSleep:
		return "SLEEP"
	case EvtWake:
		return "WAKE"
	case EvtMotion:
		return "MOTION"
	case EvtHalt:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}
