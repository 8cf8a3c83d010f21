package provider

import (
	"errors"
	"image"
)

var errEmptyFrame = errors.New("frame has no pixels")

// MeanBrightness averages the normalized red, green and blue channels over
// every pixel of img. The result is in [0, 1]; it is a plain channel mean,
// not a luminance weighting.
func MeanBrightness(img image.Image) (float64, error) {
	b := img.Bounds()
	pixels := uint64(b.Dx()) * uint64(b.Dy())
	if b.Empty() || pixels == 0 {
		return 0, errEmptyFrame
	}

	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum += uint64(r) + uint64(g) + uint64(bl)
		}
	}

	// RGBA() scales every channel to 16 bits
	return float64(sum) / (3 * 0xffff * float64(pixels)), nil
}
