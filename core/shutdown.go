package core

import (
	"sync"
	"sync/atomic"
)

// HaltFunc stops the device. It is expected not to return.
type HaltFunc func(reason string, err error)

// Shutdown holds the device-wide fatal state.
//
// A fatal condition calls Try once; the first caller runs the registered hooks
// (displays to idle, trace dump) and then the halt function. Later callers
// only observe IsShutdown.
type Shutdown struct {
	isShutdown uint32 // atomic bool
	halt       HaltFunc
	trace      *Trace

	mu    sync.Mutex
	hooks []func()
}

// NewShutdown creates a shutdown state that calls halt on the first fatal error.
// A nil halt spins forever, like a bare-metal assert.
func NewShutdown(halt HaltFunc, trace *Trace) *Shutdown {
	if halt == nil {
		halt = HaltSpin
	}
	return &Shutdown{halt: halt, trace: trace}
}

// OnShutdown registers a hook run before halting. Hooks run in registration order.
func (s *Shutdown) OnShutdown(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Try triggers a device shutdown with a reason message
func (s *Shutdown) Try(reason string, err error) {
	if !atomic.CompareAndSwapUint32(&s.isShutdown, 0, 1) {
		return
	}
	s.trace.Record(EvtHalt, reason, 0)

	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	s.halt(reason, err)
}

// IsShutdown returns true if the device is in shutdown state
func (s *Shutdown) IsShutdown() bool {
	return atomic.LoadUint32(&s.isShutdown) != 0
}

// HaltSpin parks the caller forever
func HaltSpin(reason string, err error) {
	select {}
}
