package mesh

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadOBJ decodes a Wavefront model. Polygons are fan-triangulated, V is
// flipped to Vulkan's top-left texture origin and identical vertices are
// merged. mtl may be nil when the model has no material library.
func LoadOBJ(objReader, mtlReader io.Reader) (*Mesh, error) {
	if mtlReader == nil {
		mtlReader = strings.NewReader("")
	}

	decoder, err := obj.DecodeReader(objReader, mtlReader)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	builder := NewBuilder()
	for _, object := range decoder.Objects {
		for faceIdx, face := range object.Faces {
			if len(face.Vertices) < 3 {
				return nil, errors.Newf("object %q face %d has %d vertices", object.Name, faceIdx, len(face.Vertices))
			}

			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					v, err := objVertex(decoder, face, corner)
					if err != nil {
						return nil, errors.Wrapf(err, "object %q face %d", object.Name, faceIdx)
					}
					builder.Add(v)
				}
			}
		}
	}

	m := builder.Mesh()
	if m.Empty() {
		return nil, errors.New("obj contains no faces")
	}
	return m, nil
}

func objVertex(decoder *obj.Decoder, face obj.Face, corner int) (Vertex, error) {
	posIdx := face.Vertices[corner]
	if posIdx < 0 || 3*posIdx+2 >= len(decoder.Vertices) {
		return Vertex{}, errors.Newf("position index %d out of range", posIdx)
	}

	v := Vertex{
		Position: mgl32.Vec3{
			decoder.Vertices[3*posIdx],
			decoder.Vertices[3*posIdx+1],
			decoder.Vertices[3*posIdx+2],
		},
		Color: white,
	}

	if corner < len(face.Uvs) {
		if uvIdx := face.Uvs[corner]; uvIdx >= 0 && 2*uvIdx+1 < len(decoder.Uvs) {
			v.TexCoord = mgl32.Vec2{
				decoder.Uvs[2*uvIdx],
				1 - decoder.Uvs[2*uvIdx+1],
			}
		}
	}

	if corner < len(face.Normals) {
		if nIdx := face.Normals[corner]; nIdx >= 0 && 3*nIdx+2 < len(decoder.Normals) {
			v.Normal = mgl32.Vec3{
				decoder.Normals[3*nIdx],
				decoder.Normals[3*nIdx+1],
				decoder.Normals[3*nIdx+2],
			}
		}
	}

	return v, nil
}
