package mesh

import "github.com/go-gl/mathgl/mgl32"

var (
	red   = mgl32.Vec3{1, 0, 0}
	green = mgl32.Vec3{0, 1, 0}
	blue  = mgl32.Vec3{0, 0, 1}
	white = mgl32.Vec3{1, 1, 1}
)

// Quad is a colored, textured square in the z=0 plane.
func Quad() *Mesh {
	return quadsAt(0)
}

// StackedQuads is two quads half a unit apart along z, so the depth test has
// something to sort.
func StackedQuads() *Mesh {
	return quadsAt(0, -0.5)
}

func quadsAt(depths ...float32) *Mesh {
	m := &Mesh{}
	for i, z := range depths {
		base := uint32(4 * i)
		m.Vertices = append(m.Vertices,
			Vertex{Position: mgl32.Vec3{-0.5, -0.5, z}, Color: red, TexCoord: mgl32.Vec2{1, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			Vertex{Position: mgl32.Vec3{0.5, -0.5, z}, Color: green, TexCoord: mgl32.Vec2{0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			Vertex{Position: mgl32.Vec3{0.5, 0.5, z}, Color: blue, TexCoord: mgl32.Vec2{0, 1}, Normal: mgl32.Vec3{0, 0, 1}},
			Vertex{Position: mgl32.Vec3{-0.5, 0.5, z}, Color: white, TexCoord: mgl32.Vec2{1, 1}, Normal: mgl32.Vec3{0, 0, 1}},
		)
		m.Indices = append(m.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return m
}

// cubeFace lists the corners of one face (indices into cubeCorners), the
// texture coordinate each corner takes, and the triangle order within the face.
type cubeFace struct {
	normal    mgl32.Vec3
	corners   [4]int
	texCoords [4]int
	triangles [6]uint32
}

var cubeCorners = [8]mgl32.Vec3{
	{-0.5, -0.5, -0.5},
	{0.5, -0.5, -0.5},
	{0.5, 0.5, -0.5},
	{-0.5, 0.5, -0.5},
	{-0.5, -0.5, 0.5},
	{0.5, -0.5, 0.5},
	{0.5, 0.5, 0.5},
	{-0.5, 0.5, 0.5},
}

var cubeTexCoords = [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

var cubeFaces = [6]cubeFace{
	// back
	{normal: mgl32.Vec3{0, 0, -1}, corners: [4]int{0, 1, 2, 3}, texCoords: [4]int{2, 1, 0, 3}, triangles: [6]uint32{2, 1, 0, 3, 2, 0}},
	// bottom
	{normal: mgl32.Vec3{0, -1, 0}, corners: [4]int{0, 1, 5, 4}, texCoords: [4]int{3, 0, 1, 2}, triangles: [6]uint32{0, 1, 2, 0, 2, 3}},
	// left
	{normal: mgl32.Vec3{-1, 0, 0}, corners: [4]int{0, 3, 4, 7}, texCoords: [4]int{1, 0, 2, 3}, triangles: [6]uint32{0, 2, 3, 0, 3, 1}},
	// top
	{normal: mgl32.Vec3{0, 1, 0}, corners: [4]int{2, 3, 6, 7}, texCoords: [4]int{3, 0, 2, 1}, triangles: [6]uint32{0, 1, 2, 1, 3, 2}},
	// right
	{normal: mgl32.Vec3{1, 0, 0}, corners: [4]int{1, 2, 5, 6}, texCoords: [4]int{2, 3, 1, 0}, triangles: [6]uint32{0, 1, 2, 1, 3, 2}},
	// front
	{normal: mgl32.Vec3{0, 0, 1}, corners: [4]int{4, 5, 6, 7}, texCoords: [4]int{1, 2, 3, 0}, triangles: [6]uint32{0, 1, 2, 0, 2, 3}},
}

// Cube is a unit cube centred on the origin with a separate set of four
// vertices per face, so every face carries its own normal and UVs.
func Cube() *Mesh {
	m := &Mesh{
		Vertices: make([]Vertex, 0, 4*len(cubeFaces)),
		Indices:  make([]uint32, 0, 6*len(cubeFaces)),
	}

	for _, face := range cubeFaces {
		base := uint32(len(m.Vertices))
		for i, corner := range face.corners {
			m.Vertices = append(m.Vertices, Vertex{
				Position: cubeCorners[corner],
				Color:    white,
				TexCoord: cubeTexCoords[face.texCoords[i]],
				Normal:   face.normal,
			})
		}
		for _, idx := range face.triangles {
			m.Indices = append(m.Indices, base+idx)
		}
	}

	return m
}
