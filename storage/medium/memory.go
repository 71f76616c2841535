// Package medium provides storage.Medium implementations: an in-memory
// volume, a fixed-slot flash layout, a host directory and a badger store.
package medium

import (
	"bytes"
	"sync"

	"picframe/storage"
)

// Faults injects errors into a Memory medium. Nil fields mean no fault.
type Faults struct {
	LowLevel    error
	IsFormatted error
	Format      error
	VolumeSize  error
	Open        error
	Size        error
	Read        error // returned by Read after the first ReadAfter bytes
	ReadAfter   int
	Write       error
	ShortWrite  bool
	Close       error
}

// Memory is a map-backed volume
type Memory struct {
	mu        sync.Mutex
	objects   map[string][]byte
	prepared  bool
	formatted bool
	volume    uint64
	faults    Faults
	formats   int
}

// NewMemory creates a prepared, formatted, empty volume of volumeBytes
func NewMemory(volumeBytes uint64) *Memory {
	return &Memory{
		objects:   make(map[string][]byte),
		prepared:  true,
		formatted: true,
		volume:    volumeBytes,
	}
}

// NewBlankMemory creates a volume that needs both low- and high-level formatting
func NewBlankMemory(volumeBytes uint64) *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		volume:  volumeBytes,
	}
}

// SetFaults replaces the injected faults
func (m *Memory) SetFaults(f Faults) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = f
}

// Put stores data under name
func (m *Memory) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = append([]byte(nil), data...)
}

// Get returns a copy of the stored object
func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	return append([]byte(nil), data...), ok
}

// Formats returns how many high-level formats have run
func (m *Memory) Formats() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.formats
}

func (m *Memory) LowLevelFormatIfRequired() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.LowLevel != nil {
		return m.faults.LowLevel
	}
	m.prepared = true
	return nil
}

func (m *Memory) IsFormatted() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.IsFormatted != nil {
		return false, m.faults.IsFormatted
	}
	return m.formatted, nil
}

func (m *Memory) Format() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.Format != nil {
		return m.faults.Format
	}
	m.objects = make(map[string][]byte)
	m.formatted = true
	m.formats++
	return nil
}

func (m *Memory) VolumeSize() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.VolumeSize != nil {
		return 0, m.faults.VolumeSize
	}
	return m.volume, nil
}

func (m *Memory) Open(name string, mode storage.Mode) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.faults.Open != nil {
		return nil, m.faults.Open
	}

	switch mode {
	case storage.ModeRead:
		data, ok := m.objects[name]
		if !ok {
			return nil, storage.ErrNotExist
		}
		return &memObject{m: m, name: name, r: bytes.NewReader(data), size: int64(len(data))}, nil
	default:
		m.objects[name] = nil
		return &memObject{m: m, name: name, writable: true}, nil
	}
}

// memObject is an open Memory object
type memObject struct {
	m        *Memory
	name     string
	r        *bytes.Reader
	size     int64
	read     int
	writable bool
}

func (o *memObject) Read(p []byte) (int, error) {
	if o.r == nil {
		return 0, storage.ErrNotExist
	}
	o.m.mu.Lock()
	f := o.m.faults
	o.m.mu.Unlock()

	if f.Read != nil {
		room := f.ReadAfter - o.read
		if room <= 0 {
			return 0, f.Read
		}
		if len(p) > room {
			p = p[:room]
		}
	}
	n, err := o.r.Read(p)
	o.read += n
	return n, err
}

func (o *memObject) Write(p []byte) (int, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	if !o.writable {
		return 0, storage.ErrNotExist
	}
	if o.m.faults.Write != nil {
		return 0, o.m.faults.Write
	}
	n := len(p)
	if o.m.faults.ShortWrite && n > 0 {
		n--
	}
	o.m.objects[o.name] = append(o.m.objects[o.name], p[:n]...)
	return n, nil
}

func (o *memObject) Size() (int64, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	if o.m.faults.Size != nil {
		return 0, o.m.faults.Size
	}
	if o.writable {
		return int64(len(o.m.objects[o.name])), nil
	}
	return o.size, nil
}

func (o *memObject) Close() error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return o.m.faults.Close
}
