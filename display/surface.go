// Package display renders carousel frames onto a pixel device.
package display

// Surface is what the carousel draws on. Calls are synchronous and never
// fail from the caller's point of view; a surface logs its own problems.
type Surface interface {
	// Clear fills the whole surface with the background colour
	Clear()

	// DrawImage draws an encoded image payload with its top-left corner at x, y
	DrawImage(data []byte, x, y int16)

	// DrawText draws s with its baseline starting at x, y
	DrawText(s string, x, y int16)
}
