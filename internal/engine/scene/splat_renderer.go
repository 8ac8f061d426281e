// Package scene renders decoded assets: Gaussian splat clouds as
// screen-space points and triangle meshes with lambertian shading.
package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/voxelia/splatview/internal/engine/shader"
	"github.com/voxelia/splatview/internal/engine/scene/shaders"
	"github.com/voxelia/splatview/pkg/formats"
	"github.com/voxelia/splatview/pkg/math"
)

// pointSizeCalibration maps the user-facing base point size (1.0 by
// default) onto the footprint formula in the vertex shader.
const pointSizeCalibration = 100.0

// SplatRenderer draws a splat cloud as blended screen-space points.
type SplatRenderer struct {
	program uint32

	locView       int32
	locProjection int32
	locPointSize  int32

	vao  uint32
	vbos [4]uint32

	count int32

	// BasePointSize scales every splat footprint. 1.0 is the calibrated
	// default.
	BasePointSize float32
}

// NewSplatRenderer compiles the splat shader and prepares empty buffers.
func NewSplatRenderer() (*SplatRenderer, error) {
	sr := &SplatRenderer{
		BasePointSize: 1.0,
	}

	program, err := shader.CompileProgram(shaders.SplatVertexShader, shaders.SplatFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("splat shader: %w", err)
	}
	sr.program = program

	sr.locView = shader.GetUniform(program, "uView")
	sr.locProjection = shader.GetUniform(program, "uProjection")
	sr.locPointSize = shader.GetUniform(program, "uPointSize")

	gl.GenVertexArrays(1, &sr.vao)
	gl.GenBuffers(int32(len(sr.vbos)), &sr.vbos[0])

	return sr, nil
}

// Upload replaces the GPU-side cloud with the given one.
func (sr *SplatRenderer) Upload(cloud *formats.SplatCloud) {
	sr.count = 0
	if cloud == nil || cloud.Count == 0 {
		return
	}

	gl.BindVertexArray(sr.vao)

	attribs := []struct {
		data  []float32
		comps int32
	}{
		{cloud.Positions, 3},
		{cloud.Scales, 3},
		{cloud.Colors, 3},
		{cloud.Opacities, 1},
	}

	for i, a := range attribs {
		gl.BindBuffer(gl.ARRAY_BUFFER, sr.vbos[i])
		gl.BufferData(gl.ARRAY_BUFFER, len(a.data)*4, unsafe.Pointer(&a.data[0]), gl.STATIC_DRAW)
		gl.VertexAttribPointerWithOffset(uint32(i), a.comps, gl.FLOAT, false, 0, 0)
		gl.EnableVertexAttribArray(uint32(i))
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	sr.count = int32(cloud.Count)
}

// Render draws the uploaded cloud. Splats blend additively; the depth
// buffer is read but not written so overlapping footprints accumulate.
func (sr *SplatRenderer) Render(view, projection math.Mat4) {
	if sr.count == 0 {
		return
	}

	gl.UseProgram(sr.program)
	gl.UniformMatrix4fv(sr.locView, 1, false, view.Ptr())
	gl.UniformMatrix4fv(sr.locProjection, 1, false, projection.Ptr())
	gl.Uniform1f(sr.locPointSize, sr.BasePointSize*pointSizeCalibration)

	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.DepthMask(false)

	gl.BindVertexArray(sr.vao)
	gl.DrawArrays(gl.POINTS, 0, sr.count)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

// Count returns the number of splats currently on the GPU.
func (sr *SplatRenderer) Count() int {
	return int(sr.count)
}

// Destroy releases all GPU resources.
func (sr *SplatRenderer) Destroy() {
	if sr.vao != 0 {
		gl.DeleteVertexArrays(1, &sr.vao)
		sr.vao = 0
	}
	if sr.vbos[0] != 0 {
		gl.DeleteBuffers(int32(len(sr.vbos)), &sr.vbos[0])
		sr.vbos = [4]uint32{}
	}
	if sr.program != 0 {
		gl.DeleteProgram(sr.program)
		sr.program = 0
	}
	sr.count = 0
}
