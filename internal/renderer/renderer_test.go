package renderer

import (
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/tutorials/internal/camera"
	"github.com/vkngwrapper/tutorials/internal/frame"
	"github.com/vkngwrapper/tutorials/internal/mesh"
	"github.com/vkngwrapper/tutorials/internal/texture"
)

func TestSeverityLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError|ext_debug_utils.SeverityVerbose))
	assert.Equal(t, slog.LevelWarn, severityLevel(ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelInfo, severityLevel(ext_debug_utils.SeverityInfo))
	assert.Equal(t, slog.LevelDebug, severityLevel(ext_debug_utils.SeverityVerbose))
}

func TestMaxSampleCount(t *testing.T) {
	assert.Equal(t, core1_0.Samples8, maxSampleCount(core1_0.Samples1|core1_0.Samples2|core1_0.Samples4|core1_0.Samples8))
	assert.Equal(t, core1_0.Samples2, maxSampleCount(core1_0.Samples1|core1_0.Samples2))
	assert.Equal(t, core1_0.Samples1, maxSampleCount(core1_0.Samples1))
	assert.Equal(t, core1_0.Samples1, maxSampleCount(0))
}

func TestBytesToBytecode(t *testing.T) {
	words, err := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)

	_, err = bytesToBytecode([]byte{1, 2, 3})
	assert.Error(t, err)

	_, err = bytesToBytecode(nil)
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	failure := errors.New("device lost")

	tests := []struct {
		name       string
		res        common.VkResult
		err        error
		wantStatus frame.Status
		wantErr    bool
	}{
		{name: "success", res: core1_0.VKSuccess, wantStatus: frame.StatusSuccess},
		{name: "suboptimal", res: khr_swapchain.VKSuboptimal, wantStatus: frame.StatusSuboptimal},
		{name: "out of date swallows error", res: khr_swapchain.VKErrorOutOfDate, err: failure, wantStatus: frame.StatusOutOfDate},
		{name: "other failures stay errors", res: core1_0.VKErrorDeviceLost, err: failure, wantStatus: frame.StatusSuccess, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := statusFor(tt.res, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantErr {
				assert.ErrorIs(t, err, failure)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHalveExtent(t *testing.T) {
	w, h := halveExtent(512, 1)
	assert.Equal(t, 256, w)
	assert.Equal(t, 1, h)

	w, h = halveExtent(1, 3)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

type fixedCamera struct{}

func (fixedCamera) Uniforms(float32) camera.UniformBufferObject {
	return camera.UniformBufferObject{}
}

func TestOptionsValidate(t *testing.T) {
	img := texture.Image{Width: 1, Height: 1, Pixels: make([]byte, texture.BytesPerPixel)}

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "triangle", opts: Options{Program: "triangle"}},
		{name: "no program", opts: Options{}, wantErr: true},
		{name: "empty mesh", opts: Options{Program: "p", Mesh: &mesh.Mesh{}}, wantErr: true},
		{
			name: "camera and textures",
			opts: Options{Program: "p", Mesh: mesh.Quad(), Camera: fixedCamera{}, Textures: []Texture{{Binding: 1, Image: img}, {Binding: 2, Image: img}}},
		},
		{
			name:    "texture on uniform binding",
			opts:    Options{Program: "p", Camera: fixedCamera{}, Textures: []Texture{{Binding: uniformBinding, Image: img}}},
			wantErr: true,
		},
		{
			name: "texture on binding 0 without camera",
			opts: Options{Program: "p", Textures: []Texture{{Binding: 0, Image: img}}},
		},
		{
			name:    "duplicate texture binding",
			opts:    Options{Program: "p", Textures: []Texture{{Binding: 1, Image: img}, {Binding: 1, Image: img}}},
			wantErr: true,
		},
		{
			name:    "empty texture",
			opts:    Options{Program: "p", Textures: []Texture{{Binding: 1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAttachmentLayout(t *testing.T) {
	tests := []struct {
		name        string
		depth       bool
		samples     core1_0.SampleCountFlags
		attachments int
		clears      int
	}{
		{name: "color only", samples: core1_0.Samples1, attachments: 1, clears: 1},
		{name: "depth", depth: true, samples: core1_0.Samples1, attachments: 2, clears: 2},
		{name: "multisampled with depth", depth: true, samples: core1_0.Samples4, attachments: 3, clears: 2},
		{name: "multisampled", samples: core1_0.Samples4, attachments: 2, clears: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Renderer{
				opts:        Options{Depth: tt.depth},
				msaaSamples: tt.samples,
			}
			assert.Len(t, r.framebufferAttachments(core1_0.ImageView{}), tt.attachments)
			assert.Len(t, r.clearValues(), tt.clears)
		})
	}
}

func TestShaderPath(t *testing.T) {
	r := &Renderer{opts: Options{AssetsDir: "assets", Program: "cube"}}
	assert.Equal(t, "assets/shaders/cube/frag.spv", r.shaderPath("frag"))
}

func TestVertexAttributesCoverVertex(t *testing.T) {
	bindings := getVertexBindingDescription()
	require.Len(t, bindings, 1)

	attrs := getVertexAttributeDescriptions()
	require.Len(t, attrs, 4)
	for i, attr := range attrs {
		assert.EqualValues(t, i, attr.Location)
		assert.Less(t, attr.Offset, bindings[0].Stride)
	}
}
