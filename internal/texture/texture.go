// Package texture decodes sample images into the tightly packed RGBA8 layout
// the staging buffer expects.
package texture

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"
)

// BytesPerPixel is fixed by the R8G8B8A8_SRGB texture format.
const BytesPerPixel = 4

type Image struct {
	Width  int
	Height int
	// Pixels holds Height rows of Width*BytesPerPixel bytes with no padding.
	Pixels []byte
}

// Size is the number of bytes the staging buffer must hold.
func (i Image) Size() int {
	return len(i.Pixels)
}

// MipLevels is the length of the mip chain down to 1x1.
func (i Image) MipLevels() uint32 {
	return MipLevels(i.Width, i.Height)
}

// Decode reads a PNG or JPEG and converts it to RGBA8.
func Decode(r io.Reader) (Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Image{}, errors.Wrap(err, "decode image")
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return Image{}, errors.Newf("%s image has no pixels", format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	return Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: dst.Pix,
	}, nil
}

// MipLevels returns floor(log2(max(width, height))) + 1.
func MipLevels(width, height int) uint32 {
	largest := max(width, height)
	if largest < 1 {
		return 1
	}
	return uint32(bits.Len(uint(largest)))
}
