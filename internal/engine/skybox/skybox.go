// Package skybox draws the fixed 1000-unit cube surrounding the
// camera, swapping between a clear-sky and overcast cubemap depending
// on whether rain is active. Grounded on
// original_source/proj5/src/render.cxx's View::drawSky (itself credited
// there to http://antongerdelan.net/opengl/cubemaps.html).
package skybox

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terrain-lod/internal/engine/camera"
	"github.com/Faultbox/terrain-lod/internal/engine/shader"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

const extent = 1000.0

var cubeVerts = [...]float32{
	-extent, extent, -extent, -extent, -extent, -extent, extent, -extent, -extent,
	extent, -extent, -extent, extent, extent, -extent, -extent, extent, -extent,

	-extent, -extent, extent, -extent, -extent, -extent, -extent, extent, -extent,
	-extent, extent, -extent, -extent, extent, extent, -extent, -extent, extent,

	extent, -extent, -extent, extent, -extent, extent, extent, extent, extent,
	extent, extent, extent, extent, extent, -extent, extent, -extent, -extent,

	-extent, -extent, extent, -extent, extent, extent, extent, extent, extent,
	extent, extent, extent, extent, -extent, extent, -extent, -extent, extent,

	-extent, extent, -extent, extent, extent, -extent, extent, extent, extent,
	extent, extent, extent, -extent, extent, extent, -extent, extent, -extent,

	-extent, -extent, -extent, -extent, -extent, extent, extent, -extent, -extent,
	extent, -extent, -extent, -extent, -extent, extent, extent, -extent, extent,
}

const vertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
uniform mat4 uViewMat;
uniform mat4 uProjMat;
out vec3 vDir;

void main() {
    vDir = aPos;
    vec4 pos = uProjMat * uViewMat * vec4(aPos, 1.0);
    gl_Position = pos.xyww;
}
`

const fragmentShader = `
#version 410 core
in vec3 vDir;
uniform samplerCube uCubeMap;
out vec4 fragColor;

void main() {
    fragColor = texture(uCubeMap, vDir);
}
`

// Skybox owns the cube's GPU resources and the two cubemap textures it
// swaps between.
type Skybox struct {
	program            uint32
	viewMatLoc         int32
	projMatLoc         int32
	cubeMapLoc         int32
	vao, vbo           uint32
	sunnyTexture       uint32
	cloudyTexture      uint32
}

// New compiles the skybox shader and builds its static cube geometry.
// Cubemap faces are loaded separately via LoadCubemaps once the map's
// sky textures are known.
func New() (*Skybox, error) {
	prog, err := shader.CompileProgram(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("skybox: compile program: %w", err)
	}

	sb := &Skybox{
		program:    prog,
		viewMatLoc: shader.MustGetUniform(prog, "uViewMat"),
		projMatLoc: shader.MustGetUniform(prog, "uProjMat"),
		cubeMapLoc: shader.MustGetUniform(prog, "uCubeMap"),
	}

	gl.GenVertexArrays(1, &sb.vao)
	gl.GenBuffers(1, &sb.vbo)
	gl.BindVertexArray(sb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, sb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(cubeVerts)*4, gl.Ptr(&cubeVerts[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	return sb, nil
}

// SetCubemaps installs the sunny and cloudy cubemap texture ids.
func (sb *Skybox) SetCubemaps(sunny, cloudy uint32) {
	sb.sunnyTexture = sunny
	sb.cloudyTexture = cloudy
}

// Draw renders the skybox cube, translation stripped from cam's view
// matrix so the cube always surrounds the viewer, picking the cloudy
// cubemap when rainMode is active.
func (sb *Skybox) Draw(cam *camera.Camera, rainMode bool) {
	gl.UseProgram(sb.program)

	view := stripTranslation(cam.ViewTransform())
	shader.SetUniformMat4(sb.viewMatLoc, view)
	shader.SetUniformMat4(sb.projMatLoc, cam.ProjTransform())
	shader.SetUniform1i(sb.cubeMapLoc, 3)

	gl.ActiveTexture(gl.TEXTURE3)
	if rainMode {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, sb.cloudyTexture)
	} else {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, sb.sunnyTexture)
	}

	gl.BindVertexArray(sb.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(cubeVerts)/3))
	gl.BindVertexArray(0)
}

// stripTranslation zeroes the translation column of a view matrix so a
// skybox drawn with it never moves relative to the camera.
func stripTranslation(m vecmath.Mat4) vecmath.Mat4 {
	out := m
	out[12], out[13], out[14] = 0, 0, 0
	return out
}
