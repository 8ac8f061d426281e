// Package shaders holds the GLSL sources for the scene renderers.
package shaders

// SplatVertexShader projects each splat and sizes its screen-space
// footprint from the average Gaussian scale and view distance.
const SplatVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aScale;
layout (location = 2) in vec3 aColor;
layout (location = 3) in float aOpacity;

uniform mat4 uView;
uniform mat4 uProjection;
uniform float uPointSize;

out vec3 vColor;
out float vOpacity;

void main() {
	vec4 viewPos = uView * vec4(aPosition, 1.0);
	gl_Position = uProjection * viewPos;

	float avgScale = (aScale.x + aScale.y + aScale.z) / 3.0;
	float dist = max(length(viewPos.xyz), 0.0001);
	gl_PointSize = clamp(uPointSize * avgScale * 300.0 / dist, 1.0, 64.0);

	vColor = aColor;
	vOpacity = aOpacity;
}
`

// SplatFragmentShader shades each point as a circular footprint with a
// Gaussian falloff. Fragments outside the unit circle or below the
// alpha floor are discarded.
const SplatFragmentShader = `
#version 410 core

in vec3 vColor;
in float vOpacity;

out vec4 FragColor;

void main() {
	float d = length(gl_PointCoord - vec2(0.5));
	if (d > 0.5) {
		discard;
	}

	float alpha = exp(-8.0 * d * d) * vOpacity;
	if (alpha < 0.01) {
		discard;
	}

	FragColor = vec4(vColor, alpha);
}
`

// MeshVertexShader transforms mesh vertices and passes world-space
// normals and optional vertex colors to the fragment stage.
const MeshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aColor;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vNormal;
out vec3 vColor;

void main() {
	gl_Position = uMVP * vec4(aPosition, 1.0);
	vNormal = mat3(uModel) * aNormal;
	vColor = aColor;
}
`

// MeshFragmentShader applies simple lambertian shading with an ambient
// floor. uUseVertexColor selects per-vertex color over the base color.
const MeshFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec3 vColor;

uniform vec3 uLightDir;
uniform float uAmbient;
uniform vec3 uBaseColor;
uniform int uUseVertexColor;

out vec4 FragColor;

void main() {
	vec3 n = normalize(vNormal);
	float diffuse = max(dot(n, normalize(uLightDir)), 0.0);
	float lit = uAmbient + (1.0 - uAmbient) * diffuse;

	vec3 base = uUseVertexColor != 0 ? vColor : uBaseColor;
	FragColor = vec4(base * lit, 1.0);
}
`
