//go:build !tinygo

package medium

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/disk"

	"picframe/storage"
)

const (
	objectPrefix = "obj/"
	formatKey    = "meta/format"
)

// Badger stores objects as values in a badger database
type Badger struct {
	path string
	db   *badger.DB
}

// OpenBadger opens or creates the database at path
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 64
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("medium: open badger at %s: %w", path, err)
	}
	return &Badger{path: path, db: db}, nil
}

// Close closes the database
func (b *Badger) Close() error {
	return b.db.Close()
}

// LowLevelFormatIfRequired is a no-op; opening the database prepares it
func (b *Badger) LowLevelFormatIfRequired() error {
	return nil
}

func (b *Badger) IsFormatted() (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(formatKey))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Format drops every key and writes the format marker
func (b *Badger) Format() error {
	if err := b.db.DropAll(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(formatKey), []byte{1})
	})
}

// VolumeSize returns the total size of the host volume holding the database
func (b *Badger) VolumeSize() (uint64, error) {
	usage, err := disk.Usage(b.path)
	if err != nil {
		return 0, fmt.Errorf("medium: disk usage of %s: %w", b.path, err)
	}
	return usage.Total, nil
}

func (b *Badger) Open(name string, mode storage.Mode) (storage.Object, error) {
	key := []byte(objectPrefix + name)

	if mode == storage.ModeRead {
		var data []byte
		err := b.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			data, err = item.ValueCopy(nil)
			return err
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotExist
		}
		if err != nil {
			return nil, err
		}
		return &badgerObject{r: bytes.NewReader(data), size: int64(len(data))}, nil
	}

	// Truncate now so a failed write never leaves the previous object behind
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte{})
	})
	if err != nil {
		return nil, err
	}
	return &badgerObject{b: b, key: key, w: &bytes.Buffer{}}, nil
}

// badgerObject buffers writes and commits them in one transaction on Close
type badgerObject struct {
	b    *Badger
	key  []byte
	r    *bytes.Reader
	w    *bytes.Buffer
	size int64
}

func (o *badgerObject) Read(p []byte) (int, error) {
	if o.r == nil {
		return 0, errors.New("medium: object opened for writing")
	}
	return o.r.Read(p)
}

func (o *badgerObject) Write(p []byte) (int, error) {
	if o.w == nil {
		return 0, errors.New("medium: object opened for reading")
	}
	return o.w.Write(p)
}

func (o *badgerObject) Size() (int64, error) {
	if o.w != nil {
		return int64(o.w.Len()), nil
	}
	return o.size, nil
}

func (o *badgerObject) Close() error {
	if o.w == nil {
		return nil
	}
	data := o.w.Bytes()
	o.w = nil
	return o.b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(o.key, data)
	})
}
