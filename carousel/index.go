// Package carousel cycles through the stored image catalog, one image per
// iteration, steered by touch input.
package carousel

// Advance returns the index after i in a carousel of n images
func Advance(i, n int) int {
	return Normalize(i+1, n)
}

// Retreat returns the index before i in a carousel of n images
func Retreat(i, n int) int {
	return Normalize(i-1, n)
}

// Normalize wraps any i into [0, n). n must be positive.
func Normalize(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
