package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTriangleGLTF returns a self-contained .gltf document with one
// triangle: positions as float vec3, indices as unsigned short, payload
// embedded as a base64 data URI.
func buildTriangleGLTF(t *testing.T) []byte {
	t.Helper()

	var payload bytes.Buffer
	positions := []float32{
		0, 0, 0,
		3, 0, 0,
		0, 3, 0,
	}
	require.NoError(t, binary.Write(&payload, binary.LittleEndian, positions))
	indices := []uint16{0, 1, 2}
	require.NoError(t, binary.Write(&payload, binary.LittleEndian, indices))

	uri := "data:application/octet-stream;base64," +
		base64.StdEncoding.EncodeToString(payload.Bytes())

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"uri": %q, "byteLength": %d}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3",
     "min": [0, 0, 0], "max": [3, 3, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
  "cameras": [{"name": "Main", "type": "perspective",
               "perspective": {"yfov": 0.8, "znear": 0.1}}],
  "nodes": [{"mesh": 0}],
  "scenes": [{"nodes": [0]}],
  "scene": 0
}`, uri, payload.Len())

	return []byte(doc)
}

func TestDecodeSceneTriangle(t *testing.T) {
	asset, err := DecodeScene(buildTriangleGLTF(t))
	require.NoError(t, err)
	require.NotNil(t, asset.Doc)
	require.NotNil(t, asset.Mesh)

	mesh := asset.Mesh
	assert.Equal(t, 3, mesh.VertexCount)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.False(t, mesh.HasColor)

	// No NORMAL attribute, so normals are synthesized; the triangle lies
	// in the XY plane and faces +Z.
	require.Len(t, mesh.Normals, 9)
	assert.InDelta(t, 1, mesh.Normals[2], 1e-6)

	// Positions are recentered to the centroid.
	var sum float32
	for i := 0; i < mesh.VertexCount; i++ {
		sum += mesh.Positions[i*3]
	}
	assert.InDelta(t, 0, sum, 1e-5)

	assert.Equal(t, []string{"Main"}, asset.Cameras)
	assert.Empty(t, asset.Animations)
}

func TestDecodeSceneDanglingBufferView(t *testing.T) {
	// Accessors and bufferViews pointing past their tables must yield an
	// empty merge, not an index panic; the decoder leaves cross-references
	// unvalidated.
	doc := `{
  "asset": {"version": "2.0"},
  "buffers": [{"uri": "data:application/octet-stream;base64,AAAAAAAAAAA=", "byteLength": 8}],
  "bufferViews": [{"buffer": 9, "byteOffset": 0, "byteLength": 8}],
  "accessors": [
    {"bufferView": 7, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}
  ],
  "meshes": [{"primitives": [
    {"attributes": {"POSITION": 0}},
    {"attributes": {"POSITION": 1}},
    {"attributes": {"POSITION": 99}}
  ]}],
  "scenes": [{"nodes": []}],
  "scene": 0
}`

	asset, err := DecodeScene([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, asset.Mesh.VertexCount)
	assert.Empty(t, asset.Mesh.Positions)
}

func TestDecodeSceneInvalidData(t *testing.T) {
	_, err := DecodeScene([]byte("this is not a gltf document"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gltf decode")
}
