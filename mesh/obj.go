package mesh

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

type vertexKey struct {
	position int
	normal   int
	uv       int
}

// LoadOBJ reads a Wavefront OBJ file into mesh data, deduplicating
// vertices and fan-triangulating polygonal faces. A sibling .mtl file
// is used when present but materials do not affect the mesh data.
func LoadOBJ(path string) (*Data, error) {
	meshFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open mesh %s", path)
	}
	defer meshFile.Close()

	var matReader io.Reader
	matFile, err := os.Open(strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl")
	if err == nil {
		defer matFile.Close()
		matReader = matFile
	}

	return DecodeOBJ(meshFile, matReader)
}

// DecodeOBJ reads OBJ data from r. matReader may be nil; vertex colors
// default to white.
func DecodeOBJ(r io.Reader, matReader io.Reader) (*Data, error) {
	if matReader == nil {
		// The decoder requires a material stream even when the mesh
		// ships without one.
		matReader = strings.NewReader("")
	}
	decoder, err := obj.DecodeReader(r, matReader)
	if err != nil {
		return nil, errors.Wrap(err, "decode obj")
	}

	data := &Data{}
	unique := make(map[vertexKey]uint32)

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			// Faces can be arbitrary polygons; emit a triangle fan.
			for i := 2; i < len(face.Vertices); i++ {
				addVertex(decoder, data, unique, face, 0)
				addVertex(decoder, data, unique, face, i-1)
				addVertex(decoder, data, unique, face, i)
			}
		}
	}

	if len(data.Vertices) == 0 {
		return nil, errors.New("mesh: obj contains no faces")
	}
	return data, nil
}

func addVertex(decoder *obj.Decoder, data *Data, unique map[vertexKey]uint32, face obj.Face, faceIndex int) {
	key := vertexKey{position: face.Vertices[faceIndex], normal: -1, uv: -1}
	if len(face.Normals) > faceIndex {
		if ni := face.Normals[faceIndex]; ni >= 0 && (ni+1)*3 <= len(decoder.Normals) {
			key.normal = ni
		}
	}
	if len(face.Uvs) > faceIndex {
		if ui := face.Uvs[faceIndex]; ui >= 0 && (ui+1)*2 <= len(decoder.Uvs) {
			key.uv = ui
		}
	}

	index, exists := unique[key]
	if !exists {
		vert := Vertex{
			Position: mgl32.Vec3{
				decoder.Vertices[key.position*3],
				decoder.Vertices[key.position*3+1],
				decoder.Vertices[key.position*3+2],
			},
			Color: mgl32.Vec3{1, 1, 1},
		}
		if key.normal >= 0 {
			vert.Normal = mgl32.Vec3{
				decoder.Normals[key.normal*3],
				decoder.Normals[key.normal*3+1],
				decoder.Normals[key.normal*3+2],
			}
		}
		if key.uv >= 0 {
			vert.UV = mgl32.Vec2{
				decoder.Uvs[key.uv*2],
				1.0 - decoder.Uvs[key.uv*2+1],
			}
		}

		index = uint32(len(data.Vertices))
		data.Vertices = append(data.Vertices, vert)
		unique[key] = index
	}

	data.Indices = append(data.Indices, index)
}
