package shaders

import (
	"strings"
	"testing"
)

func TestSplatFootprintClampIsFixed(t *testing.T) {
	// The footprint range is a calibrated constant; it must not pick up
	// viewport-dependent terms.
	if !strings.Contains(SplatVertexShader, "clamp(uPointSize * avgScale * 300.0 / dist, 1.0, 64.0)") {
		t.Error("splat vertex shader should clamp gl_PointSize to the fixed [1, 64] range")
	}
	if strings.Contains(SplatVertexShader, "uViewport") {
		t.Error("splat vertex shader should not reference viewport dimensions")
	}
}

func TestShaderSourcesDeclareVersion(t *testing.T) {
	for name, src := range map[string]string{
		"splat vertex":   SplatVertexShader,
		"splat fragment": SplatFragmentShader,
		"mesh vertex":    MeshVertexShader,
		"mesh fragment":  MeshFragmentShader,
	} {
		if !strings.Contains(src, "#version 410 core") {
			t.Errorf("%s shader missing version directive", name)
		}
	}
}
