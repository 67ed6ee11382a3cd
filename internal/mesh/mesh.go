// Package mesh holds the vertex layout shared by every sample and the
// geometry they draw.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is laid out exactly as the vertex shaders read it: tightly packed
// float32s, binding 0, locations 0-3 in field order.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Empty reports whether there is nothing to draw.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Indices) == 0
}

// Builder accumulates vertices and folds identical ones into a single index.
type Builder struct {
	mesh   Mesh
	unique map[Vertex]uint32
}

func NewBuilder() *Builder {
	return &Builder{unique: make(map[Vertex]uint32)}
}

// Add appends v to the index list, reusing the index of an identical vertex.
func (b *Builder) Add(v Vertex) uint32 {
	index, ok := b.unique[v]
	if !ok {
		index = uint32(len(b.mesh.Vertices))
		b.mesh.Vertices = append(b.mesh.Vertices, v)
		b.unique[v] = index
	}

	b.mesh.Indices = append(b.mesh.Indices, index)
	return index
}

// Mesh returns what has been built so far. The builder must not be used
// afterwards.
func (b *Builder) Mesh() *Mesh {
	m := b.mesh
	return &m
}
