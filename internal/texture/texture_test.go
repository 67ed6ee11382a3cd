package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMipLevels(t *testing.T) {
	tests := []struct {
		width, height int
		want          uint32
	}{
		{1, 1, 1},
		{2, 1, 2},
		{512, 512, 10},
		{1024, 768, 11},
		{4096, 2048, 13},
		{1000, 3, 10},
		{0, 0, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MipLevels(tt.width, tt.height), "%dx%d", tt.width, tt.height)
	}
}

func TestDecode_PalettedPNG(t *testing.T) {
	palette := color.Palette{
		color.RGBA{R: 255, A: 255},
		color.RGBA{B: 128, A: 128},
	}
	src := image.NewPaletted(image.Rect(0, 0, 3, 2), palette)
	src.SetColorIndex(2, 1, 1)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	require.Equal(t, 3*2*BytesPerPixel, img.Size())

	assert.Equal(t, []byte{255, 0, 0, 255}, img.Pixels[:4])
	// Premultiplied: half-transparent blue.
	last := img.Pixels[len(img.Pixels)-4:]
	assert.Equal(t, []byte{0, 0, 128, 128}, last)
	assert.Equal(t, uint32(2), img.MipLevels())
}

func TestDecode_OffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.NRGBA{G: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, []byte{0, 255, 0, 255}, img.Pixels[:4])
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not an image"))
	assert.Error(t, err)
}
