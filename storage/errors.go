package storage

import (
	"errors"
	"fmt"
)

// ErrHalted is returned by the worker after a fatal storage error
var ErrHalted = errors.New("storage: worker halted after fatal error")

// FatalError describes a storage condition the device cannot continue from
type FatalError struct {
	Op     string // operation or mount step
	Object string // object name, empty for volume-level failures
	Err    error
}

func (e *FatalError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("storage: fatal %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: fatal %s %s: %v", e.Op, e.Object, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
