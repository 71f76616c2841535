package medium

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picframe/storage"
)

// mount runs the worker's startup sequence against m
func mount(t *testing.T, m storage.Medium) {
	t.Helper()
	require.NoError(t, m.LowLevelFormatIfRequired())
	formatted, err := m.IsFormatted()
	require.NoError(t, err)
	if !formatted {
		require.NoError(t, m.Format())
	}
	formatted, err = m.IsFormatted()
	require.NoError(t, err)
	require.True(t, formatted)

	size, err := m.VolumeSize()
	require.NoError(t, err)
	require.NotZero(t, size)
}

func writeObject(t *testing.T, m storage.Medium, name string, data []byte) {
	t.Helper()
	obj, err := m.Open(name, storage.ModeWrite)
	require.NoError(t, err)
	n, err := obj.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, obj.Close())
}

func readObject(t *testing.T, m storage.Medium, name string) []byte {
	t.Helper()
	obj, err := m.Open(name, storage.ModeRead)
	require.NoError(t, err)
	size, err := obj.Size()
	require.NoError(t, err)
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.Equal(t, size, int64(len(data)))
	require.NoError(t, obj.Close())
	return data
}

// exerciseMedium checks the behaviour every medium shares
func exerciseMedium(t *testing.T, m storage.Medium) {
	mount(t, m)

	_, err := m.Open("img2.bmp", storage.ModeRead)
	assert.ErrorIs(t, err, storage.ErrNotExist)

	first := bytes.Repeat([]byte{0xA5}, 1000)
	writeObject(t, m, "img2.bmp", first)
	assert.Equal(t, first, readObject(t, m, "img2.bmp"))

	// A second write truncates
	second := []byte("short")
	writeObject(t, m, "img2.bmp", second)
	assert.Equal(t, second, readObject(t, m, "img2.bmp"))

	writeObject(t, m, "img0.bmp", []byte("zero"))
	assert.Equal(t, []byte("zero"), readObject(t, m, "img0.bmp"))

	require.NoError(t, m.Format())
	_, err = m.Open("img2.bmp", storage.ModeRead)
	assert.ErrorIs(t, err, storage.ErrNotExist)
	formatted, err := m.IsFormatted()
	require.NoError(t, err)
	assert.True(t, formatted)
}

func TestMemory(t *testing.T) {
	exerciseMedium(t, NewBlankMemory(1<<20))
}

func TestMemoryFaults(t *testing.T) {
	m := NewMemory(1 << 20)
	m.Put("a", []byte("abcdef"))

	m.SetFaults(Faults{Read: errors.New("ecc"), ReadAfter: 2})
	obj, err := m.Open("a", storage.ModeRead)
	require.NoError(t, err)
	buf := make([]byte, 6)
	n, err := io.ReadFull(obj, buf)
	assert.Equal(t, 2, n)
	assert.EqualError(t, err, "ecc")

	m.SetFaults(Faults{ShortWrite: true})
	obj, err = m.Open("b", storage.ModeWrite)
	require.NoError(t, err)
	n, err = obj.Write([]byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSlots(t *testing.T) {
	dev := NewMemFlash(64, 4096)
	s, err := NewSlots(dev, storage.DefaultCatalog(), 8000)
	require.NoError(t, err)
	exerciseMedium(t, s)

	size, err := s.VolumeSize()
	require.NoError(t, err)
	assert.Equal(t, uint64(5*8000), size)
}

func TestSlotsLowLevelFormatOnlyOnce(t *testing.T) {
	dev := NewMemFlash(64, 4096)
	s, err := NewSlots(dev, storage.DefaultCatalog(), 4000)
	require.NoError(t, err)

	formatted, err := s.IsFormatted()
	require.NoError(t, err)
	assert.False(t, formatted, "garbage is not a volume")

	require.NoError(t, s.LowLevelFormatIfRequired())
	erases := dev.Erases()
	assert.Equal(t, 1, erases)

	formatted, err = s.IsFormatted()
	require.NoError(t, err)
	assert.False(t, formatted, "low-level format leaves no directory")

	require.NoError(t, s.LowLevelFormatIfRequired())
	assert.Equal(t, erases, dev.Erases(), "prepared device is not erased again")
}

func TestSlotsPersistAcrossReopen(t *testing.T) {
	dev := NewMemFlash(64, 4096)
	s, err := NewSlots(dev, storage.DefaultCatalog(), 4000)
	require.NoError(t, err)
	mount(t, s)
	writeObject(t, s, "img3.bmp", []byte("persisted"))

	again, err := NewSlots(dev, storage.DefaultCatalog(), 4000)
	require.NoError(t, err)
	mount(t, again)
	assert.Equal(t, []byte("persisted"), readObject(t, again, "img3.bmp"))
}

func TestSlotsGeometryChangeNeedsFormat(t *testing.T) {
	dev := NewMemFlash(64, 4096)
	s, err := NewSlots(dev, storage.DefaultCatalog(), 4000)
	require.NoError(t, err)
	mount(t, s)

	other, err := NewSlots(dev, storage.DefaultCatalog(), 5000)
	require.NoError(t, err)
	formatted, err := other.IsFormatted()
	require.NoError(t, err)
	assert.False(t, formatted)
}

func TestSlotsOverflow(t *testing.T) {
	dev := NewMemFlash(64, 4096)
	s, err := NewSlots(dev, storage.DefaultCatalog(), 100)
	require.NoError(t, err)
	mount(t, s)

	obj, err := s.Open("img0.bmp", storage.ModeWrite)
	require.NoError(t, err)
	n, err := obj.Write(make([]byte, 150))
	assert.ErrorIs(t, err, ErrSlotFull)
	assert.Equal(t, 100, n)
}

func TestSlotsRejectsOversizedLayout(t *testing.T) {
	dev := NewMemFlash(4, 4096)
	_, err := NewSlots(dev, storage.DefaultCatalog(), 8000)
	assert.Error(t, err)
}

func TestSlotsUnknownName(t *testing.T) {
	dev := NewMemFlash(64, 4096)
	s, err := NewSlots(dev, storage.DefaultCatalog(), 100)
	require.NoError(t, err)
	mount(t, s)

	_, err = s.Open("other.bmp", storage.ModeRead)
	assert.ErrorIs(t, err, storage.ErrNotExist)
	_, err = s.Open("other.bmp", storage.ModeWrite)
	assert.Error(t, err)
}

func TestDir(t *testing.T) {
	exerciseMedium(t, NewDir(t.TempDir()+"/volume", storage.DefaultCatalog(), 0))
}

func TestDirRejectsPathNames(t *testing.T) {
	d := NewDir(t.TempDir(), storage.DefaultCatalog(), 0)
	mount(t, d)

	_, err := d.Open("../escape.bmp", storage.ModeWrite)
	assert.Error(t, err)
	_, err = d.Open(formatMarker, storage.ModeWrite)
	assert.Error(t, err)

	for _, name := range []string{".", ".."} {
		_, err = d.Open(name, storage.ModeRead)
		assert.Error(t, err, name)
		assert.NotErrorIs(t, err, storage.ErrNotExist, name)
	}
}

func TestDirFormatKeepsUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	holiday := filepath.Join(root, "holiday.jpg")
	album := filepath.Join(root, "album")
	require.NoError(t, os.WriteFile(holiday, []byte("jpeg"), 0o644))
	require.NoError(t, os.Mkdir(album, 0o755))

	d := NewDir(root, storage.Catalog{"img0.bmp", ".."}, 0)
	mount(t, d)
	writeObject(t, d, "img0.bmp", []byte("zero"))
	require.NoError(t, d.Format())

	_, err := d.Open("img0.bmp", storage.ModeRead)
	assert.ErrorIs(t, err, storage.ErrNotExist)
	assert.FileExists(t, holiday)
	assert.DirExists(t, album)
	assert.DirExists(t, filepath.Dir(root), "directory references in the catalog are skipped")
}

func TestDirFreeSpaceFloor(t *testing.T) {
	d := NewDir(t.TempDir(), storage.DefaultCatalog(), ^uint64(0))
	mount(t, d)

	_, err := d.Open("img0.bmp", storage.ModeWrite)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestBadger(t *testing.T) {
	b, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer b.Close()

	exerciseMedium(t, b)
}

func TestBadgerWriteIsVisibleAfterClose(t *testing.T) {
	b, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer b.Close()
	mount(t, b)

	obj, err := b.Open("img1.bmp", storage.ModeWrite)
	require.NoError(t, err)
	_, err = obj.Write([]byte("pending"))
	require.NoError(t, err)

	// Truncated on open, committed on close
	assert.Empty(t, readObject(t, b, "img1.bmp"))
	require.NoError(t, obj.Close())
	assert.Equal(t, []byte("pending"), readObject(t, b, "img1.bmp"))
}
