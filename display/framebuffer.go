package display

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
)

// Framebuffer is an in-memory drivers.Displayer used by the host simulator
type Framebuffer struct {
	mu      sync.Mutex
	img     *image.RGBA
	flushes int
	asleep  bool
}

// NewFramebuffer creates a width x height framebuffer
func NewFramebuffer(width, height int16) *Framebuffer {
	return &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, int(width), int(height)))}
}

func (f *Framebuffer) Size() (x, y int16) {
	b := f.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.img.SetRGBA(int(x), int(y), c)
}

func (f *Framebuffer) Display() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

// FillScreen paints every pixel with c
func (f *Framebuffer) FillScreen(c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			f.img.SetRGBA(x, y, c)
		}
	}
	f.flushes++
}

// Sleep puts the simulated panel in or out of its idle state
func (f *Framebuffer) Sleep(sleep bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asleep = sleep
	return nil
}

// Asleep reports whether the panel is idle
func (f *Framebuffer) Asleep() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.asleep
}

// At returns the colour at x, y
func (f *Framebuffer) At(x, y int) color.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.img.RGBAAt(x, y)
}

// Flushes returns how many times the frame was pushed to the "panel"
func (f *Framebuffer) Flushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// WritePNG encodes the current frame as PNG
func (f *Framebuffer) WritePNG(w io.Writer) error {
	f.mu.Lock()
	snap := image.NewRGBA(f.img.Bounds())
	copy(snap.Pix, f.img.Pix)
	f.mu.Unlock()
	return png.Encode(w, snap)
}
