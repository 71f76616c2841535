package display

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var (
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// plainDisplay hides FillScreen so Clear takes the per-pixel path
type plainDisplay struct {
	fb *Framebuffer
}

func (d plainDisplay) Size() (x, y int16)                { return d.fb.Size() }
func (d plainDisplay) SetPixel(x, y int16, c color.RGBA) { d.fb.SetPixel(x, y, c) }
func (d plainDisplay) Display() error                    { return d.fb.Display() }

func encodeBMP(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

func newPanel(t *testing.T) (*Panel, *Framebuffer) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	fb := NewFramebuffer(32, 24)
	return NewPanel(fb, PanelConfig{Logger: logger}), fb
}

func TestPanelDrawImage(t *testing.T) {
	p, fb := newPanel(t)
	p.Clear()

	p.DrawImage(encodeBMP(t, 4, 3, green), 2, 5)

	assert.Equal(t, green, fb.At(2, 5))
	assert.Equal(t, green, fb.At(5, 7))
	assert.Equal(t, Black, fb.At(6, 7), "right of the image")
	assert.Equal(t, Black, fb.At(2, 8), "below the image")
}

func TestPanelDrawImageIgnoresTrailingBytes(t *testing.T) {
	p, fb := newPanel(t)

	payload := encodeBMP(t, 2, 2, blue)
	buf := make([]byte, len(payload)+100)
	copy(buf, payload)
	p.DrawImage(buf, 0, 0)

	assert.Equal(t, blue, fb.At(1, 1))
	assert.Zero(t, p.BadImages())
}

func TestPanelDrawImageClips(t *testing.T) {
	p, fb := newPanel(t)
	p.Clear()

	p.DrawImage(encodeBMP(t, 10, 10, green), 28, -4)

	assert.Equal(t, green, fb.At(31, 0))
	assert.Equal(t, green, fb.At(28, 5))
	assert.Equal(t, Black, fb.At(27, 0))
}

func TestPanelRejectsGarbage(t *testing.T) {
	p, fb := newPanel(t)
	before := fb.Flushes()

	p.DrawImage([]byte("definitely not a bitmap"), 0, 0)

	assert.Equal(t, uint64(1), p.BadImages())
	assert.Equal(t, before, fb.Flushes(), "nothing is pushed for a bad payload")
}

func TestPanelDrawText(t *testing.T) {
	p, fb := newPanel(t)
	p.Clear()

	p.DrawText("3/5", 2, 16)

	red := 0
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			if fb.At(x, y) == Red {
				red++
			}
		}
	}
	assert.Positive(t, red)
}

func TestPanelClearWithoutHardwareFill(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fb := NewFramebuffer(8, 8)
	fb.SetPixel(3, 3, green)

	p := NewPanel(plainDisplay{fb: fb}, PanelConfig{Background: blue, Logger: logger})
	p.Clear()

	assert.Equal(t, blue, fb.At(3, 3))
	assert.Equal(t, blue, fb.At(7, 7))
	assert.Equal(t, 1, fb.Flushes())
}

func TestFramebufferPNG(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.FillScreen(green)

	var buf bytes.Buffer
	require.NoError(t, fb.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	r, g, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, []uint32{0, 0xFFFF, 0}, []uint32{r, g, b})
}

func TestFramebufferSleep(t *testing.T) {
	fb := NewFramebuffer(1, 1)
	require.NoError(t, fb.Sleep(true))
	assert.True(t, fb.Asleep())
	require.NoError(t, fb.Sleep(false))
	assert.False(t, fb.Asleep())
}
