package storage

import "strconv"

// Operation selects what the storage worker does with a Command
type Operation uint8

const (
	OpRead Operation = iota
	OpWrite
	OpForceFormat
)

// String returns the operation name used in logs
func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpForceFormat:
		return "force_format"
	default:
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
}

// Command is one request to the storage worker.
//
// Buffer is owned by the requester; the worker only touches it between
// receiving the command and posting its completion. Index is ignored by
// OpForceFormat.
type Command struct {
	Op     Operation
	Index  int    // catalog index, [0, N)
	Buffer []byte // destination (read) or source (write)
	Size   int    // requested byte count, at most len(Buffer)

	seq uint64 // assigned by Channel.Submit
}

// Seq returns the sequence number assigned when the command was submitted
func (c Command) Seq() uint64 {
	return c.seq
}

// Catalog is the fixed, ordered set of stored object names.
// Its length is the carousel size N.
type Catalog []string

// DefaultCatalog is the stock five-image catalog
func DefaultCatalog() Catalog {
	return Catalog{"img0.bmp", "img1.bmp", "img2.bmp", "img3.bmp", "img4.bmp"}
}

// DefaultObjectBytes is the size of one stored 320x240 32bpp bitmap
const DefaultObjectBytes = 307254

// Len returns N
func (c Catalog) Len() int {
	return len(c)
}

// Name returns the object name for index, or false when index is out of range
func (c Catalog) Name(index int) (string, bool) {
	if index < 0 || index >= len(c) {
		return "", false
	}
	return c[index], true
}
