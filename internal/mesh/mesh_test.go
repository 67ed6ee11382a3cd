package mesh

import (
	"encoding/binary"
	"strings"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexLayoutIsPacked(t *testing.T) {
	// The vertex buffer is filled with encoding/binary and described to the
	// pipeline with unsafe.Sizeof; both must agree.
	assert.Equal(t, int(unsafe.Sizeof(Vertex{})), binary.Size(Vertex{}))
	assert.Equal(t, 11*4, binary.Size(Vertex{}))
}

func TestBuilder_Deduplicates(t *testing.T) {
	a := Vertex{Position: mgl32.Vec3{1, 2, 3}}
	b := Vertex{Position: mgl32.Vec3{1, 2, 3}, TexCoord: mgl32.Vec2{0.5, 0.5}}

	builder := NewBuilder()
	assert.Equal(t, uint32(0), builder.Add(a))
	assert.Equal(t, uint32(1), builder.Add(b))
	assert.Equal(t, uint32(0), builder.Add(a))

	m := builder.Mesh()
	assert.Len(t, m.Vertices, 2)
	assert.Equal(t, []uint32{0, 1, 0}, m.Indices)
}

func TestQuads(t *testing.T) {
	q := Quad()
	assert.Len(t, q.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, q.Indices)

	s := StackedQuads()
	assert.Len(t, s.Vertices, 8)
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}, s.Indices)
	assert.Equal(t, float32(-0.5), s.Vertices[4].Position.Z())
}

func TestCube(t *testing.T) {
	c := Cube()
	require.Len(t, c.Vertices, 24)
	require.Len(t, c.Indices, 36)

	for _, idx := range c.Indices {
		assert.Less(t, idx, uint32(24))
	}

	// Every triangle winds counter-clockwise seen from outside and lies on
	// the face its normal names.
	for tri := 0; tri < len(c.Indices); tri += 3 {
		v0 := c.Vertices[c.Indices[tri]]
		v1 := c.Vertices[c.Indices[tri+1]]
		v2 := c.Vertices[c.Indices[tri+2]]

		assert.Equal(t, v0.Normal, v1.Normal)
		assert.Equal(t, v0.Normal, v2.Normal)

		geometric := v1.Position.Sub(v0.Position).Cross(v2.Position.Sub(v0.Position))
		assert.Greater(t, geometric.Dot(v0.Normal), float32(0), "triangle %d faces inward", tri/3)
		for _, v := range []Vertex{v0, v1, v2} {
			assert.InDelta(t, 0.5, v.Position.Dot(v0.Normal), 1e-6, "vertex off its face")
		}
	}
}

const quadOBJ = `o quad
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func TestLoadOBJ_TriangulatesAndFlipsV(t *testing.T) {
	m, err := LoadOBJ(strings.NewReader(quadOBJ), nil)
	require.NoError(t, err)

	assert.Len(t, m.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices)

	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, m.Vertices[0].Position)
	assert.Equal(t, mgl32.Vec2{0, 1}, m.Vertices[0].TexCoord)
	assert.Equal(t, mgl32.Vec2{1, 0}, m.Vertices[2].TexCoord)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.Vertices[0].Color)
}

func TestLoadOBJ_Empty(t *testing.T) {
	_, err := LoadOBJ(strings.NewReader("o nothing\nv 0 0 0\n"), nil)
	assert.Error(t, err)
}
