package present

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseExtent_ClampsFramebufferSize(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: UndefinedExtent, Height: UndefinedExtent},
		MinImageExtent: core1_0.Extent2D{Width: 200, Height: 200},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}

	assert.Equal(t, core1_0.Extent2D{Width: 4096, Height: 200}, ChooseExtent(caps, 5000, 100))
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 800, 600))
	assert.Equal(t, core1_0.Extent2D{Width: 200, Height: 4096}, ChooseExtent(caps, 0, 9000))
}

func TestChooseExtent_UsesDefinedCurrentExtent(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: 1280, Height: 720},
		MinImageExtent: core1_0.Extent2D{Width: 200, Height: 200},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}

	assert.Equal(t, core1_0.Extent2D{Width: 1280, Height: 720}, ChooseExtent(caps, 5000, 100))
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name      string
		available []khr_surface.PresentMode
		want      khr_surface.PresentMode
	}{
		{
			name:      "mailbox preferred",
			available: []khr_surface.PresentMode{khr_surface.PresentModeImmediate, khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox},
			want:      khr_surface.PresentModeMailbox,
		},
		{
			name:      "fifo fallback ignores first entry",
			available: []khr_surface.PresentMode{khr_surface.PresentModeImmediate, khr_surface.PresentModeFIFORelaxed, khr_surface.PresentModeFIFO},
			want:      khr_surface.PresentModeFIFO,
		},
		{
			name:      "fifo even when unlisted",
			available: []khr_surface.PresentMode{khr_surface.PresentModeImmediate},
			want:      khr_surface.PresentModeFIFO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChoosePresentMode(tt.available))
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	rgba := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	format, err := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm, PreferredFormat, rgba})
	require.NoError(t, err)
	assert.Equal(t, PreferredFormat, format)

	format, err = ChooseSurfaceFormat([]khr_surface.SurfaceFormat{rgba, unorm})
	require.NoError(t, err)
	assert.Equal(t, rgba, format)

	_, err = ChooseSurfaceFormat(nil)
	assert.Error(t, err)
}

func TestImageCount(t *testing.T) {
	assert.Equal(t, 3, ImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}))
	assert.Equal(t, 3, ImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, 2, ImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestSupportDetails_Adequate(t *testing.T) {
	assert.False(t, SupportDetails{}.Adequate())
	assert.True(t, SupportDetails{
		Capabilities: &khr_surface.SurfaceCapabilities{},
		Formats:      []khr_surface.SurfaceFormat{PreferredFormat},
		PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}.Adequate())
}
