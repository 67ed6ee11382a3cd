// Package present picks swapchain parameters from what a surface supports.
package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// UndefinedExtent is the CurrentExtent width a surface reports when the
// swapchain extent decides the window size rather than the other way round.
const UndefinedExtent = -1

// PreferredFormat is the surface format picked whenever the surface offers it.
var PreferredFormat = khr_surface.SurfaceFormat{
	Format:     core1_0.FormatB8G8R8A8SRGB,
	ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
}

// SupportDetails is everything a surface reports about swapchains it accepts
// from one physical device.
type SupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether a swapchain can be built at all.
func (d SupportDetails) Adequate() bool {
	return d.Capabilities != nil && len(d.Formats) > 0 && len(d.PresentModes) > 0
}

// ChooseSurfaceFormat returns PreferredFormat if available, else the first
// format the surface lists.
func ChooseSurfaceFormat(available []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(available) == 0 {
		return khr_surface.SurfaceFormat{}, errors.New("surface reports no formats")
	}

	for _, format := range available {
		if format == PreferredFormat {
			return format, nil
		}
	}

	return available[0], nil
}

// ChoosePresentMode prefers mailbox and otherwise falls back to FIFO, the
// only mode every surface is required to support.
func ChoosePresentMode(available []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range available {
		if mode == khr_surface.PresentModeMailbox {
			return mode
		}
	}

	return khr_surface.PresentModeFIFO
}

// ChooseExtent returns the surface's current extent when it is defined, else
// the framebuffer size clamped into the surface's supported range.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, framebufferWidth, framebufferHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != UndefinedExtent {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(framebufferWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(framebufferHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ImageCount asks for one image more than the minimum so the application
// never waits on the driver to release one, within the surface's maximum.
// A maximum of 0 means unbounded.
func ImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
