package medium

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"picframe/storage"
)

// Flash volume layout. Block 0 holds the header; each catalog object owns a
// fixed, erase-aligned slot after it:
//
//	header: [0:4] volume magic  [4:8] directory magic  [8:12] slots  [12:16] slot size
//	slot:   [0:4] object length (0xFFFFFFFF = empty)   [4:]  object bytes
const (
	headerSize     = 16
	lengthSize     = 4
	emptyLength    = 0xFFFFFFFF
	volumeMagic    = "PFLL"
	directoryMagic = "PFHL"
)

// ErrSlotFull is returned by a write that does not fit the object's slot
var ErrSlotFull = errors.New("medium: object exceeds slot size")

// Slots stores one object per catalog name in fixed flash slots
type Slots struct {
	dev      BlockDevice
	catalog  storage.Catalog
	slotSize int64
	span     int64 // slot size rounded up to erase blocks, length word included
}

// NewSlots lays catalog out on dev with slotSize bytes per object
func NewSlots(dev BlockDevice, catalog storage.Catalog, slotSize int64) (*Slots, error) {
	erase := dev.EraseBlockSize()
	if erase < headerSize {
		return nil, fmt.Errorf("medium: erase block %d smaller than header", erase)
	}
	if slotSize <= 0 || slotSize >= emptyLength {
		return nil, fmt.Errorf("medium: invalid slot size %d", slotSize)
	}

	span := (lengthSize + slotSize + erase - 1) / erase * erase
	need := erase + span*int64(catalog.Len())
	if need > dev.Size() {
		return nil, fmt.Errorf("medium: %d slots of %d bytes need %d bytes, device has %d",
			catalog.Len(), slotSize, need, dev.Size())
	}

	return &Slots{dev: dev, catalog: catalog, slotSize: slotSize, span: span}, nil
}

func (s *Slots) LowLevelFormatIfRequired() error {
	magic := make([]byte, len(volumeMagic))
	if _, err := s.dev.ReadAt(magic, 0); err != nil {
		return err
	}
	if string(magic) == volumeMagic {
		return nil
	}
	return s.eraseAll(false)
}

func (s *Slots) IsFormatted() (bool, error) {
	hdr := make([]byte, headerSize)
	if _, err := s.dev.ReadAt(hdr, 0); err != nil {
		return false, err
	}
	return bytes.Equal(hdr, s.header(true)), nil
}

func (s *Slots) Format() error {
	return s.eraseAll(true)
}

func (s *Slots) VolumeSize() (uint64, error) {
	return uint64(s.slotSize) * uint64(s.catalog.Len()), nil
}

func (s *Slots) Open(name string, mode storage.Mode) (storage.Object, error) {
	slot, ok := s.slot(name)
	if !ok {
		if mode == storage.ModeRead {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("medium: %q has no slot", name)
	}
	base := s.dev.EraseBlockSize() + int64(slot)*s.span

	if mode == storage.ModeRead {
		word := make([]byte, lengthSize)
		if _, err := s.dev.ReadAt(word, base); err != nil {
			return nil, err
		}
		n := binary.LittleEndian.Uint32(word)
		if n == emptyLength {
			return nil, storage.ErrNotExist
		}
		if int64(n) > s.slotSize {
			return nil, fmt.Errorf("medium: slot %d length %d is corrupt", slot, n)
		}
		return &slotObject{s: s, base: base, r: io.NewSectionReader(s.dev, base+lengthSize, int64(n)), n: int64(n)}, nil
	}

	block := base / s.dev.EraseBlockSize()
	if err := s.dev.EraseBlocks(block, s.span/s.dev.EraseBlockSize()); err != nil {
		return nil, err
	}
	return &slotObject{s: s, base: base, writable: true}, nil
}

func (s *Slots) slot(name string) (int, bool) {
	for i, n := range s.catalog {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (s *Slots) header(withDirectory bool) []byte {
	hdr := make([]byte, headerSize)
	copy(hdr[0:4], volumeMagic)
	if !withDirectory {
		for i := 4; i < headerSize; i++ {
			hdr[i] = 0xFF
		}
		return hdr
	}
	copy(hdr[4:8], directoryMagic)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(s.catalog.Len()))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(s.slotSize))
	return hdr
}

// eraseAll erases the header and every slot, then writes a fresh header
func (s *Slots) eraseAll(withDirectory bool) error {
	erase := s.dev.EraseBlockSize()
	blocks := (erase + s.span*int64(s.catalog.Len())) / erase
	if err := s.dev.EraseBlocks(0, blocks); err != nil {
		return err
	}
	_, err := s.dev.WriteAt(s.header(withDirectory), 0)
	return err
}

// slotObject is an open slot. Writes stream into the erased slot and the
// length word is committed on Close.
type slotObject struct {
	s        *Slots
	base     int64
	r        *io.SectionReader
	n        int64
	writable bool
}

func (o *slotObject) Read(p []byte) (int, error) {
	if o.r == nil {
		return 0, errors.New("medium: object opened for writing")
	}
	return o.r.Read(p)
}

func (o *slotObject) Write(p []byte) (int, error) {
	if !o.writable {
		return 0, errors.New("medium: object opened for reading")
	}
	var full error
	if room := o.s.slotSize - o.n; int64(len(p)) > room {
		p = p[:room]
		full = ErrSlotFull
	}
	n, err := o.s.dev.WriteAt(p, o.base+lengthSize+o.n)
	o.n += int64(n)
	if err != nil {
		return n, err
	}
	return n, full
}

func (o *slotObject) Size() (int64, error) {
	return o.n, nil
}

func (o *slotObject) Close() error {
	if !o.writable {
		return nil
	}
	o.writable = false
	word := make([]byte, lengthSize)
	binary.LittleEndian.PutUint32(word, uint32(o.n))
	_, err := o.s.dev.WriteAt(word, o.base)
	return err
}
