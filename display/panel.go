package display

import (
	"bytes"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// filler is implemented by panels with a hardware fill, like the ST7789
type filler interface {
	FillScreen(c color.RGBA)
}

// PanelConfig configures a Panel. Zero colours and a nil font get defaults.
type PanelConfig struct {
	Background color.RGBA
	Foreground color.RGBA
	Font       tinyfont.Fonter
	Logger     logrus.FieldLogger
}

// Panel is a Surface over any tinygo display driver. Images are BMP payloads.
type Panel struct {
	dev  drivers.Displayer
	bg   color.RGBA
	fg   color.RGBA
	font tinyfont.Fonter
	log  logrus.FieldLogger

	badImages atomic.Uint64
}

// NewPanel wraps dev
func NewPanel(dev drivers.Displayer, cfg PanelConfig) *Panel {
	if cfg.Background == (color.RGBA{}) {
		cfg.Background = Black
	}
	if cfg.Foreground == (color.RGBA{}) {
		cfg.Foreground = Red
	}
	if cfg.Font == nil {
		cfg.Font = &freemono.Regular9pt7b
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Panel{
		dev:  dev,
		bg:   cfg.Background,
		fg:   cfg.Foreground,
		font: cfg.Font,
		log:  cfg.Logger.WithField("task", "display"),
	}
}

func (p *Panel) Clear() {
	if f, ok := p.dev.(filler); ok {
		f.FillScreen(p.bg)
		return
	}
	w, h := p.dev.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			p.dev.SetPixel(x, y, p.bg)
		}
	}
	p.flush()
}

// DrawImage decodes a BMP payload and blits it clipped to the panel.
// Trailing bytes after the bitmap are ignored.
func (p *Panel) DrawImage(data []byte, x, y int16) {
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		p.badImages.Add(1)
		p.log.WithError(err).Warn("Unable to decode image")
		return
	}
	p.blit(img, x, y)
	p.flush()
}

func (p *Panel) DrawText(s string, x, y int16) {
	tinyfont.WriteLine(p.dev, p.font, x, y, s, p.fg)
	p.flush()
}

// BadImages returns how many payloads failed to decode
func (p *Panel) BadImages() uint64 {
	return p.badImages.Load()
}

func (p *Panel) blit(img image.Image, x, y int16) {
	w, h := p.dev.Size()
	b := img.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		dy := int(y) + sy - b.Min.Y
		if dy < 0 || dy >= int(h) {
			continue
		}
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			dx := int(x) + sx - b.Min.X
			if dx < 0 || dx >= int(w) {
				continue
			}
			c := color.RGBAModel.Convert(img.At(sx, sy)).(color.RGBA)
			p.dev.SetPixel(int16(dx), int16(dy), c)
		}
	}
}

func (p *Panel) flush() {
	if err := p.dev.Display(); err != nil {
		p.log.WithError(err).Warn("Display flush failed")
	}
}
