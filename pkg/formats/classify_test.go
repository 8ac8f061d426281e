package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifyHeader(t *testing.T, props ...string) Classification {
	t.Helper()
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 5\n"
	for _, p := range props {
		header += "property float " + p + "\n"
	}
	header += "end_header\n"

	class, err := ClassifyBytes([]byte(header))
	require.NoError(t, err)
	return class
}

func TestClassifySplatByOpacity(t *testing.T) {
	class := classifyHeader(t, "x", "y", "z", "opacity")

	assert.Equal(t, KindSplat, class.Kind)
	assert.Equal(t, 5, class.RecordCount)
	assert.Equal(t, []string{"opacity"}, class.MatchedSplatProperties)
}

func TestClassifySplatByGaussianFields(t *testing.T) {
	class := classifyHeader(t,
		"x", "y", "z",
		"scale_0", "scale_1", "scale_2",
		"rot_0", "rot_1", "rot_2", "rot_3",
		"f_dc_0", "f_dc_1", "f_dc_2",
	)

	assert.Equal(t, KindSplat, class.Kind)
	assert.Contains(t, class.MatchedSplatProperties, "scale_0")
	assert.Contains(t, class.MatchedSplatProperties, "rot_3")
	assert.Contains(t, class.MatchedSplatProperties, "f_dc_2")
}

func TestClassifyMesh(t *testing.T) {
	class := classifyHeader(t, "x", "y", "z", "nx", "ny", "nz", "red", "green", "blue")

	assert.Equal(t, KindMesh, class.Kind)
	assert.True(t, class.HasColor)
	assert.True(t, class.HasNormal)
	assert.Empty(t, class.MatchedSplatProperties)
}

func TestClassifyDiagnosticPropertiesDoNotDecide(t *testing.T) {
	// f_rest_N alone is recorded but never flips the classification.
	class := classifyHeader(t, "x", "y", "z", "f_rest_0", "f_rest_1")

	assert.Equal(t, KindMesh, class.Kind)
	assert.Equal(t, []string{"f_rest_0", "f_rest_1"}, class.MatchedSplatProperties)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	class := classifyHeader(t, "x", "y", "z", "Opacity")

	assert.Equal(t, KindSplat, class.Kind)
	assert.Equal(t, []string{"opacity"}, class.MatchedSplatProperties)
}

func TestClassifyBytesBadHeader(t *testing.T) {
	_, err := ClassifyBytes([]byte("not a ply file"))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}
