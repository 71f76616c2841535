//go:build !tinygo

package medium

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/disk"

	"picframe/storage"
)

// formatMarker marks a directory as a formatted volume
const formatMarker = ".picframe"

// ErrNoSpace is returned when the host volume is below the free-space floor
var ErrNoSpace = errors.New("medium: not enough free space on volume")

// Dir stores objects as files in a host directory
type Dir struct {
	root    string
	catalog storage.Catalog
	minFree uint64
}

// NewDir creates a medium rooted at root holding the objects named in
// catalog. Format only removes those objects, so root may be shared with
// other files. Writes are refused while the volume has less than
// minFreeBytes available.
func NewDir(root string, catalog storage.Catalog, minFreeBytes uint64) *Dir {
	return &Dir{root: root, catalog: catalog, minFree: minFreeBytes}
}

// LowLevelFormatIfRequired creates the root directory
func (d *Dir) LowLevelFormatIfRequired() error {
	return os.MkdirAll(d.root, 0o755)
}

func (d *Dir) IsFormatted() (bool, error) {
	_, err := os.Stat(filepath.Join(d.root, formatMarker))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Format removes the catalog objects and writes a fresh marker
func (d *Dir) Format() error {
	for _, name := range d.catalog {
		if !validName(name) {
			continue
		}
		err := os.Remove(filepath.Join(d.root, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return os.WriteFile(filepath.Join(d.root, formatMarker), nil, 0o644)
}

// VolumeSize returns the total size of the host volume holding the root
func (d *Dir) VolumeSize() (uint64, error) {
	usage, err := disk.Usage(d.root)
	if err != nil {
		return 0, fmt.Errorf("medium: disk usage of %s: %w", d.root, err)
	}
	return usage.Total, nil
}

func (d *Dir) Open(name string, mode storage.Mode) (storage.Object, error) {
	if !validName(name) {
		return nil, fmt.Errorf("medium: invalid object name %q", name)
	}
	path := filepath.Join(d.root, name)

	if mode == storage.ModeRead {
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotExist
		}
		if err != nil {
			return nil, err
		}
		return &fileObject{File: f}, nil
	}

	if d.minFree > 0 {
		usage, err := disk.Usage(d.root)
		if err != nil {
			return nil, err
		}
		if usage.Free < d.minFree {
			return nil, fmt.Errorf("%w: %d bytes free, %d required", ErrNoSpace, usage.Free, d.minFree)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileObject{File: f}, nil
}

// validName accepts plain file names inside the root
func validName(name string) bool {
	switch name {
	case "", ".", "..", formatMarker:
		return false
	}
	return filepath.Base(name) == name
}

type fileObject struct {
	*os.File
}

func (o *fileObject) Size() (int64, error) {
	info, err := o.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
