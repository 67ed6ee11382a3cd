// Package assets holds the GLSL sources of every shader program. go generate
// compiles each into <program>/vert.spv and <program>/frag.spv with glslc
// from the Vulkan SDK. Textures and models are read from textures/ and
// models/ next to this file.
package assets

//go:generate glslc shaders/triangle/shader.vert -o shaders/triangle/vert.spv
//go:generate glslc shaders/triangle/shader.frag -o shaders/triangle/frag.spv
//go:generate glslc shaders/vertex_color/shader.vert -o shaders/vertex_color/vert.spv
//go:generate glslc shaders/vertex_color/shader.frag -o shaders/vertex_color/frag.spv
//go:generate glslc shaders/uniform_color/shader.vert -o shaders/uniform_color/vert.spv
//go:generate glslc shaders/uniform_color/shader.frag -o shaders/uniform_color/frag.spv
//go:generate glslc shaders/textured/shader.vert -o shaders/textured/vert.spv
//go:generate glslc shaders/textured/shader.frag -o shaders/textured/frag.spv
//go:generate glslc shaders/cube/shader.vert -o shaders/cube/vert.spv
//go:generate glslc shaders/cube/shader.frag -o shaders/cube/frag.spv
