package storage

import (
	"errors"
	"io"
)

// ErrNotExist is returned by Medium.Open when the named object is absent
var ErrNotExist = errors.New("storage: object does not exist")

// Mode selects how an object is opened
type Mode uint8

const (
	// ModeRead opens an existing object for reading
	ModeRead Mode = iota
	// ModeWrite truncates the object, creating it if needed
	ModeWrite
)

// Object is an open stored object
type Object interface {
	io.Reader
	io.Writer

	// Size returns the object's current size in bytes
	Size() (int64, error)

	// Close releases the handle. A close error means the medium is inconsistent.
	Close() error
}

// Medium is the storage device the worker owns.
// Errors from every method other than Open are treated as fatal by the worker.
type Medium interface {
	// LowLevelFormatIfRequired erases the device when it has never been prepared
	LowLevelFormatIfRequired() error

	// IsFormatted reports whether the volume carries a valid high-level format
	IsFormatted() (bool, error)

	// Format destructively reinitializes the volume
	Format() error

	// VolumeSize returns the usable volume size in bytes
	VolumeSize() (uint64, error)

	// Open opens name in mode. Absent objects in ModeRead yield ErrNotExist.
	Open(name string, mode Mode) (Object, error)
}
