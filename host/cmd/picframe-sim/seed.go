package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/bmp"

	"picframe/storage"
)

// palette colours the generated images, one per catalog slot
var palette = []color.RGBA{
	{R: 0x20, G: 0x60, B: 0xC0, A: 0xFF},
	{R: 0x30, G: 0xA0, B: 0x40, A: 0xFF},
	{R: 0xE0, G: 0xA0, B: 0x20, A: 0xFF},
	{R: 0x90, G: 0x30, B: 0xB0, A: 0xFF},
	{R: 0x20, G: 0xB0, B: 0xB0, A: 0xFF},
}

// testImage renders a banded bitmap for slot index
func testImage(index, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := palette[index%len(palette)]
	band := height / 8

	for y := 0; y < height; y++ {
		c := base
		if band > 0 && (y/band)%2 == 1 {
			c = color.RGBA{R: base.R / 2, G: base.G / 2, B: base.B / 2, A: 0xFF}
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// seedImages stores a generated image under every catalog name through the
// storage worker
func (f *frame) seedImages(ctx context.Context) error {
	for i := range f.catalog {
		data, err := testImage(i, panelWidth, panelHeight)
		if err != nil {
			return err
		}
		if len(data) > f.maxBytes {
			return fmt.Errorf("image %d is %d bytes, limit %d", i, len(data), f.maxBytes)
		}

		ok, err := f.channel.Call(ctx, storage.Command{
			Op:     storage.OpWrite,
			Index:  i,
			Buffer: data,
			Size:   len(data),
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("write of %s failed", f.catalog[i])
		}
	}
	f.log.WithField("images", f.catalog.Len()).Info("Seeded test images")
	return nil
}
