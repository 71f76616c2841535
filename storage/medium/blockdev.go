package medium

import (
	"errors"
	"sync"
)

// BlockDevice is an erasable flash device. It has the method set of
// TinyGo's machine.BlockDevice, so machine.Flash satisfies it directly.
type BlockDevice interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Size() int64
	WriteBlockSize() int64
	EraseBlockSize() int64

	// EraseBlocks erases count blocks starting at block index start
	EraseBlocks(start, count int64) error
}

var errOutOfRange = errors.New("medium: access past end of device")

// MemFlash is a RAM-backed BlockDevice with NOR semantics: erase sets bytes
// to 0xFF and a write can only clear bits.
type MemFlash struct {
	mu        sync.Mutex
	data      []byte
	eraseSize int64
	erases    int
}

// NewMemFlash creates a device of blocks erase blocks of eraseSize bytes.
// Its contents start as garbage, like a part that was never prepared.
func NewMemFlash(blocks int, eraseSize int64) *MemFlash {
	data := make([]byte, int64(blocks)*eraseSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return &MemFlash{data: data, eraseSize: eraseSize}
}

func (f *MemFlash) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off < 0 || off+int64(len(p)) > int64(len(f.data)) {
		return 0, errOutOfRange
	}
	return copy(p, f.data[off:]), nil
}

func (f *MemFlash) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off < 0 || off+int64(len(p)) > int64(len(f.data)) {
		return 0, errOutOfRange
	}
	for i, b := range p {
		f.data[off+int64(i)] &= b
	}
	return len(p), nil
}

func (f *MemFlash) Size() int64 {
	return int64(len(f.data))
}

func (f *MemFlash) WriteBlockSize() int64 {
	return 1
}

func (f *MemFlash) EraseBlockSize() int64 {
	return f.eraseSize
}

func (f *MemFlash) EraseBlocks(start, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	from, to := start*f.eraseSize, (start+count)*f.eraseSize
	if start < 0 || count < 0 || to > int64(len(f.data)) {
		return errOutOfRange
	}
	for i := from; i < to; i++ {
		f.data[i] = 0xFF
	}
	f.erases++
	return nil
}

// Erases returns how many EraseBlocks calls succeeded
func (f *MemFlash) Erases() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.erases
}
