// Package shader builds OpenGL programs from embedded GLSL sources.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// CompileProgram compiles a vertex/fragment shader pair and links them into
// a program, returning its ID. Shader objects are released once attached.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	stages := []struct {
		kind uint32
		name string
		src  string
	}{
		{gl.VERTEX_SHADER, "vertex", vertexSrc},
		{gl.FRAGMENT_SHADER, "fragment", fragmentSrc},
	}

	program := gl.CreateProgram()
	for _, stage := range stages {
		sh := gl.CreateShader(stage.kind)
		src, free := gl.Strs(stage.src + "\x00")
		gl.ShaderSource(sh, 1, src, nil)
		free()
		gl.CompileShader(sh)

		var ok int32
		gl.GetShaderiv(sh, gl.COMPILE_STATUS, &ok)
		if ok == gl.FALSE {
			msg := infoLog(sh, gl.GetShaderiv, gl.GetShaderInfoLog)
			gl.DeleteShader(sh)
			gl.DeleteProgram(program)
			return 0, fmt.Errorf("compiling %s shader: %s", stage.name, msg)
		}

		gl.AttachShader(program, sh)
		// Flagged for deletion now; the driver frees it with the program.
		gl.DeleteShader(sh)
	}

	gl.LinkProgram(program)

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("linking program: %s", msg)
	}

	return program, nil
}

// infoLog fetches a shader or program info log via the matching
// getter/log function pair.
func infoLog(id uint32, getiv func(uint32, uint32, *int32), getLog func(uint32, int32, *int32, *uint8)) string {
	var logLen int32
	getiv(id, gl.INFO_LOG_LENGTH, &logLen)
	if logLen <= 0 {
		return "no info log"
	}
	log := make([]byte, logLen)
	getLog(id, logLen, nil, &log[0])
	return string(log)
}

// GetUniform returns the location of a uniform, or -1 if the linker
// discarded it as inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
