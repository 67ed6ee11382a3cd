package sample

import "github.com/vkngwrapper/tutorials/internal/mesh"

const (
	modelPath        = "models/viking_room.obj"
	modelTexturePath = "textures/viking_room.png"
	quadTexturePath  = "textures/texture.jpg"
)

var HelloTriangle = Definition{
	Name:    "hello_triangle",
	Title:   "Hello Triangle in Vulkan",
	Program: "triangle",
}

var VertexBuffers = Definition{
	Name:     "vertex_buffers",
	Title:    "Vertex buffers in Vulkan",
	Program:  "vertex_color",
	Geometry: Builtin(mesh.Quad),
}

var UniformBuffers = Definition{
	Name:     "uniform_buffers",
	Title:    "Uniform buffers in Vulkan",
	Program:  "uniform_color",
	Geometry: Builtin(mesh.Quad),
	Camera:   SpinCamera,
}

var TextureMapping = Definition{
	Name:     "texture_mapping",
	Title:    "Texture mapping in Vulkan",
	Program:  "textured",
	Geometry: Builtin(mesh.Quad),
	Textures: []TextureAsset{{Binding: 1, Path: quadTexturePath}},
	Camera:   SpinCamera,
}

var DepthBuffering = Definition{
	Name:     "depth_buffering",
	Title:    "Simple Quad in Vulkan",
	Program:  "textured",
	Geometry: Builtin(mesh.StackedQuads),
	Textures: []TextureAsset{{Binding: 1, Path: quadTexturePath}},
	Camera:   SpinCamera,
	Depth:    true,
}

var LoadingModel = Definition{
	Name:     "loading_model",
	Title:    "Loading a model sample",
	Program:  "textured",
	Geometry: Model(modelPath),
	Textures: []TextureAsset{{Binding: 1, Path: modelTexturePath}},
	Camera:   SpinCamera,
	Depth:    true,
}

var Mipmaps = Definition{
	Name:     "mipmaps",
	Title:    "Mipmaps in Vulkan",
	Program:  "textured",
	Geometry: Model(modelPath),
	Textures: []TextureAsset{{Binding: 1, Path: modelTexturePath}},
	Camera:   SpinCamera,
	Depth:    true,
	Mipmaps:  true,
}

var Multisampling = Definition{
	Name:        "multisampling",
	Title:       "Multisampling in Vulkan",
	Program:     "textured",
	Geometry:    Model(modelPath),
	Textures:    []TextureAsset{{Binding: 1, Path: modelTexturePath}},
	Camera:      SpinCamera,
	Depth:       true,
	Mipmaps:     true,
	Multisample: true,
}

// TextureCube binds the specular map at 1 and the diffuse map at 2, matching
// the cube fragment shader.
var TextureCube = Definition{
	Name:     "texture_cube",
	Title:    "Textured cube in Vulkan",
	Program:  "cube",
	Geometry: Builtin(mesh.Cube),
	Textures: []TextureAsset{
		{Binding: 1, Path: "textures/container2_specular.png"},
		{Binding: 2, Path: "textures/container2.png"},
	},
	Camera:      OrbitCamera,
	Depth:       true,
	Mipmaps:     true,
	Multisample: true,
}

// All lists every sample in tutorial order.
var All = []Definition{
	HelloTriangle,
	VertexBuffers,
	UniformBuffers,
	TextureMapping,
	DepthBuffering,
	LoadingModel,
	Mipmaps,
	Multisampling,
	TextureCube,
}
