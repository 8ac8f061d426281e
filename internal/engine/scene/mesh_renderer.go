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

// MeshRenderer draws a triangle mesh with lambertian shading.
type MeshRenderer struct {
	program uint32

	locMVP            int32
	locModel          int32
	locLightDir       int32
	locAmbient        int32
	locBaseColor      int32
	locUseVertexColor int32

	vao         uint32
	vbos        [3]uint32
	ebo         uint32
	indexCount  int32
	vertexCount int32
	hasColor    bool

	// Lighting parameters, adjustable at runtime.
	LightDir  [3]float32
	Ambient   float32
	BaseColor [3]float32
}

// NewMeshRenderer compiles the mesh shader and prepares empty buffers.
func NewMeshRenderer() (*MeshRenderer, error) {
	mr := &MeshRenderer{
		LightDir:  [3]float32{0.4, 0.8, 0.45},
		Ambient:   0.25,
		BaseColor: [3]float32{0.75, 0.75, 0.78},
	}

	program, err := shader.CompileProgram(shaders.MeshVertexShader, shaders.MeshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	mr.program = program

	mr.locMVP = shader.GetUniform(program, "uMVP")
	mr.locModel = shader.GetUniform(program, "uModel")
	mr.locLightDir = shader.GetUniform(program, "uLightDir")
	mr.locAmbient = shader.GetUniform(program, "uAmbient")
	mr.locBaseColor = shader.GetUniform(program, "uBaseColor")
	mr.locUseVertexColor = shader.GetUniform(program, "uUseVertexColor")

	gl.GenVertexArrays(1, &mr.vao)
	gl.GenBuffers(int32(len(mr.vbos)), &mr.vbos[0])
	gl.GenBuffers(1, &mr.ebo)

	return mr, nil
}

// Upload replaces the GPU-side mesh with the given one.
func (mr *MeshRenderer) Upload(mesh *formats.Mesh) {
	mr.indexCount = 0
	mr.vertexCount = 0
	mr.hasColor = false
	if mesh == nil || mesh.VertexCount == 0 {
		return
	}

	gl.BindVertexArray(mr.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, mr.vbos[0])
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Positions)*4, unsafe.Pointer(&mesh.Positions[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(gl.ARRAY_BUFFER, mr.vbos[1])
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Normals)*4, unsafe.Pointer(&mesh.Normals[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(1)

	if mesh.HasColor && len(mesh.Colors) == len(mesh.Positions) {
		gl.BindBuffer(gl.ARRAY_BUFFER, mr.vbos[2])
		gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Colors)*4, unsafe.Pointer(&mesh.Colors[0]), gl.STATIC_DRAW)
		gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, 0, 0)
		gl.EnableVertexAttribArray(2)
		mr.hasColor = true
	} else {
		gl.DisableVertexAttribArray(2)
		gl.VertexAttrib3f(2, 1, 1, 1)
	}

	if len(mesh.Indices) > 0 {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mr.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)
		mr.indexCount = int32(len(mesh.Indices))
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	mr.vertexCount = int32(mesh.VertexCount)
}

// Render draws the uploaded mesh. Meshes without face connectivity are
// drawn as raw points.
func (mr *MeshRenderer) Render(model, view, projection math.Mat4) {
	if mr.vertexCount == 0 {
		return
	}

	mvp := projection.Mul(view).Mul(model)

	gl.UseProgram(mr.program)
	gl.UniformMatrix4fv(mr.locMVP, 1, false, mvp.Ptr())
	gl.UniformMatrix4fv(mr.locModel, 1, false, model.Ptr())
	gl.Uniform3f(mr.locLightDir, mr.LightDir[0], mr.LightDir[1], mr.LightDir[2])
	gl.Uniform1f(mr.locAmbient, mr.Ambient)
	gl.Uniform3f(mr.locBaseColor, mr.BaseColor[0], mr.BaseColor[1], mr.BaseColor[2])
	if mr.hasColor {
		gl.Uniform1i(mr.locUseVertexColor, 1)
	} else {
		gl.Uniform1i(mr.locUseVertexColor, 0)
	}

	gl.BindVertexArray(mr.vao)
	if mr.indexCount > 0 {
		gl.DrawElements(gl.TRIANGLES, mr.indexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.POINTS, 0, mr.vertexCount)
	}
	gl.BindVertexArray(0)
}

// VertexCount returns the number of vertices currently on the GPU.
func (mr *MeshRenderer) VertexCount() int {
	return int(mr.vertexCount)
}

// Destroy releases all GPU resources.
func (mr *MeshRenderer) Destroy() {
	if mr.vao != 0 {
		gl.DeleteVertexArrays(1, &mr.vao)
		mr.vao = 0
	}
	if mr.vbos[0] != 0 {
		gl.DeleteBuffers(int32(len(mr.vbos)), &mr.vbos[0])
		mr.vbos = [3]uint32{}
	}
	if mr.ebo != 0 {
		gl.DeleteBuffers(1, &mr.ebo)
		mr.ebo = 0
	}
	if mr.program != 0 {
		gl.DeleteProgram(mr.program)
		mr.program = 0
	}
	mr.indexCount = 0
	mr.vertexCount = 0
}
