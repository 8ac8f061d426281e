package formats

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiTrianglePLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
3 0 0
0 3 0
3 0 1 2
`

func TestDecodeMeshASCIITriangle(t *testing.T) {
	data := []byte(asciiTrianglePLY)
	layout, err := ParseHeader(data)
	require.NoError(t, err)

	mesh, err := DecodeMesh(data, layout)
	require.NoError(t, err)

	assert.Equal(t, 3, mesh.VertexCount)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.False(t, mesh.HasColor)

	// Normals are synthesized; a CCW triangle in the XY plane faces +Z.
	require.Len(t, mesh.Normals, 9)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0, mesh.Normals[i*3+0], 1e-6)
		assert.InDelta(t, 0, mesh.Normals[i*3+1], 1e-6)
		assert.InDelta(t, 1, mesh.Normals[i*3+2], 1e-6)
	}

	// Positions are recentered so the centroid sits at the origin.
	var sum [3]float32
	for i := 0; i < 3; i++ {
		sum[0] += mesh.Positions[i*3+0]
		sum[1] += mesh.Positions[i*3+1]
		sum[2] += mesh.Positions[i*3+2]
	}
	assert.InDelta(t, 0, sum[0], 1e-5)
	assert.InDelta(t, 0, sum[1], 1e-5)
	assert.InDelta(t, 0, sum[2], 1e-5)
}

func TestDecodeMeshQuadTriangulation(t *testing.T) {
	data := []byte(`ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`)
	layout, err := ParseHeader(data)
	require.NoError(t, err)

	mesh, err := DecodeMesh(data, layout)
	require.NoError(t, err)

	// The quad fan-triangulates from its first vertex.
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
}

func TestDecodeMeshFaceIndexOutOfRange(t *testing.T) {
	data := []byte(`ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 2
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
3 0 1 9
`)
	layout, err := ParseHeader(data)
	require.NoError(t, err)

	mesh, err := DecodeMesh(data, layout)
	require.NoError(t, err)

	// Faces referencing missing vertices are dropped, not an error.
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
}

func TestDecodeMeshBinaryWithUcharColor(t *testing.T) {
	header := "ply\n" +
		"format binary_little_endian 1.0\n" +
		"element vertex 2\n" +
		"property float x\n" +
		"property float y\n" +
		"property float z\n" +
		"property uchar red\n" +
		"property uchar green\n" +
		"property uchar blue\n" +
		"end_header\n"

	var buf bytes.Buffer
	buf.WriteString(header)
	for _, rec := range []struct {
		pos [3]float32
		rgb [3]uint8
	}{
		{[3]float32{0, 0, 0}, [3]uint8{255, 0, 51}},
		{[3]float32{2, 0, 0}, [3]uint8{0, 255, 255}},
	} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, rec.pos))
		buf.Write(rec.rgb[:])
	}

	data := buf.Bytes()
	layout, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, 15, layout.BytesPerRecord)

	mesh, err := DecodeMesh(data, layout)
	require.NoError(t, err)

	require.True(t, mesh.HasColor)
	assert.InDelta(t, 1.0, mesh.Colors[0], 1e-6)
	assert.InDelta(t, 0.0, mesh.Colors[1], 1e-6)
	assert.InDelta(t, 0.2, mesh.Colors[2], 1e-3)
	assert.InDelta(t, 1.0, mesh.Colors[5], 1e-6)
}

func TestDecodeMeshBinaryTruncated(t *testing.T) {
	header := "ply\n" +
		"format binary_little_endian 1.0\n" +
		"element vertex 4\n" +
		"property float x\n" +
		"property float y\n" +
		"property float z\n" +
		"end_header\n"
	// Only one of the four declared records present.
	data := append([]byte(header), make([]byte, 12)...)

	layout, err := ParseHeader(data)
	require.NoError(t, err)

	_, err = DecodeMesh(data, layout)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestDecodeMeshHugeDeclaredCount(t *testing.T) {
	// A count whose byte size overflows int must still be rejected as
	// truncation, not allocate.
	header := "ply\n" +
		"format binary_little_endian 1.0\n" +
		"element vertex 164703072086692426\n" +
		"property float x\n" +
		"property float y\n" +
		"property float z\n" +
		"end_header\n"
	data := append([]byte(header), make([]byte, 12)...)

	layout, err := ParseHeader(data)
	require.NoError(t, err)

	_, err = DecodeMesh(data, layout)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestDecodeMeshASCIIHugeDeclaredCount(t *testing.T) {
	header := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 164703072086692426\n" +
		"property float x\n" +
		"property float y\n" +
		"property float z\n" +
		"end_header\n" +
		"0 0 0\n"

	layout, err := ParseHeader([]byte(header))
	require.NoError(t, err)

	_, err = DecodeMesh([]byte(header), layout)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestSmoothNormalsIsolatedVertex(t *testing.T) {
	// Two triangle vertices plus one vertex referenced by no face.
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		5, 5, 5,
	}
	indices := []uint32{0, 1, 2}

	normals := SmoothNormals(positions, indices)
	require.Len(t, normals, len(positions))

	assert.InDelta(t, 1, normals[2], 1e-6)  // triangle faces +Z
	assert.InDelta(t, 1, normals[10], 1e-6) // isolated vertex defaults to +Y
	assert.InDelta(t, 0, normals[9], 1e-6)
	assert.InDelta(t, 0, normals[11], 1e-6)
}

func TestCenterToCentroid(t *testing.T) {
	positions := []float32{
		2, 4, 6,
		4, 6, 8,
	}

	offset := CenterToCentroid(positions)

	assert.Equal(t, [3]float32{3, 5, 7}, offset)
	assert.Equal(t, []float32{-1, -1, -1, 1, 1, 1}, positions)

	assert.Equal(t, [3]float32{}, CenterToCentroid(nil))
}
