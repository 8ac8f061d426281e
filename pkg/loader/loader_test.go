package loader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelia/splatview/pkg/formats"
)

// splatFixture is a two-record binary splat PLY with position, scale,
// rotation, SH DC and opacity fields.
func splatFixture(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("element vertex 2\n")
	for _, p := range []string{
		"x", "y", "z",
		"scale_0", "scale_1", "scale_2",
		"rot_0", "rot_1", "rot_2", "rot_3",
		"f_dc_0", "f_dc_1", "f_dc_2",
		"opacity",
	} {
		buf.WriteString("property float " + p + "\n")
	}
	buf.WriteString("end_header\n")

	records := [][]float32{
		{0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		{1, 2, 3, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 4},
	}
	for _, rec := range records {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, rec))
	}
	return buf.Bytes()
}

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"scene.ply", FormatPointContainer},
		{"scene.PLY", FormatPointContainer},
		{"model.gltf", FormatScene},
		{"model.glb", FormatScene},
		{"packed.sog", FormatCompressedSplat},
		{"notes.txt", FormatUnknown},
		{"noextension", FormatUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.filename, nil), tt.filename)
	}
}

func TestDetectBySniffing(t *testing.T) {
	plyData := []byte("ply\nformat binary_little_endian 1.0\nend_header\n")
	glbData := append([]byte("glTF"), make([]byte, 16)...)

	assert.Equal(t, FormatPointContainer, Detect("download.bin", plyData))
	assert.Equal(t, FormatScene, Detect("download.bin", glbData))
	assert.Equal(t, FormatUnknown, Detect("download.bin", []byte("garbage content")))
	assert.Equal(t, FormatUnknown, Detect("download.bin", nil))

	// Detect keeps no state between calls.
	assert.Equal(t, FormatPointContainer, Detect("download.bin", plyData))
}

func TestLoadSplatEndToEnd(t *testing.T) {
	data := splatFixture(t)

	res, err := Load(data, "/some/dir/garden.ply", Options{})
	require.NoError(t, err)

	assert.Equal(t, ResultSplatCloud, res.Kind)
	assert.Equal(t, "garden.ply", res.Name)
	require.NotNil(t, res.Splat)
	assert.Nil(t, res.Mesh)
	assert.Nil(t, res.Scene)

	assert.Equal(t, 2, res.Splat.Count)
	assert.Equal(t, []float32{0, 0, 0, 1, 2, 3}, res.Splat.Positions)

	require.NotNil(t, res.Classification)
	assert.Equal(t, formats.KindSplat, res.Classification.Kind)
	assert.Equal(t, 2, res.Classification.RecordCount)
}

func TestLoadSplatMaxPoints(t *testing.T) {
	res, err := Load(splatFixture(t), "garden.ply", Options{MaxPoints: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Splat.Count)
}

func TestLoadMeshPLY(t *testing.T) {
	data := []byte(`ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`)

	res, err := Load(data, "tri.ply", Options{})
	require.NoError(t, err)

	assert.Equal(t, ResultMesh, res.Kind)
	require.NotNil(t, res.Mesh)
	assert.Equal(t, 3, res.Mesh.VertexCount)
	require.NotNil(t, res.Classification)
	assert.Equal(t, formats.KindMesh, res.Classification.Kind)
}

func TestLoadSceneGLTF(t *testing.T) {
	res, err := Load(buildTriangleGLTF(t), "tri.gltf", Options{})
	require.NoError(t, err)

	assert.Equal(t, ResultScene, res.Kind)
	require.NotNil(t, res.Scene)
	assert.Equal(t, 3, res.Scene.Mesh.VertexCount)
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load([]byte("hello"), "notes.txt", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadCorruptPLY(t *testing.T) {
	_, err := Load([]byte("ply\nformat binary_little_endian 1.0\n"), "broken.ply", Options{})
	assert.ErrorIs(t, err, formats.ErrMalformedHeader)
}

func TestLoadCompressedSplatStub(t *testing.T) {
	res, err := Load([]byte{0x01, 0x02}, "packed.sog", Options{})
	require.NoError(t, err)

	assert.Equal(t, ResultSplatCloud, res.Kind)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, 0, res.Splat.Count)
}

func TestFormatAndKindStrings(t *testing.T) {
	assert.Equal(t, "point-container", FormatPointContainer.String())
	assert.Equal(t, "scene", FormatScene.String())
	assert.Equal(t, "compressed-splat", FormatCompressedSplat.String())
	assert.Equal(t, "unknown", FormatUnknown.String())

	assert.Equal(t, "splat-cloud", ResultSplatCloud.String())
	assert.Equal(t, "mesh", ResultMesh.String())
	assert.Equal(t, "scene-graph", ResultScene.String())
}
