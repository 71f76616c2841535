//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// Hosted goroutines run in parallel, so the critical section is a real lock
// instead of an interrupt mask.
var criticalMu sync.Mutex

// enterCritical takes the critical-section lock
func enterCritical() State {
	criticalMu.Lock()
	return 0
}

// exitCritical releases the critical-section lock
func exitCritical(state State) {
	criticalMu.Unlock()
}
