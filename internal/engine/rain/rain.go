// Package rain renders a simple GPU point-sprite particle overlay,
// toggled by the R key. Grounded on
// original_source/proj5/src/map.cxx's Map::drawRain (itself based on
// http://www.opengl-tutorial.org/intermediate-tutorials/billboards-particles/particles-instancing/).
package rain

import (
	"math/rand"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terrain-lod/internal/engine/camera"
	"github.com/Faultbox/terrain-lod/internal/engine/shader"
)

// MaxDroplets bounds the particle pool, matching the original's
// MAX_DROPLETS constant.
const MaxDroplets = 2000

// dropletLifespan is how long a spawned droplet survives, in seconds.
const dropletLifespan = 15.0

// spawnRatePerSecond sets how many new droplets are spawned per second
// of simulated time, matching the original's dt*10000 spawn-rate
// formula scaled down to a droplet pool sized for a modern frame budget.
const spawnRatePerSecond = 4000.0

// maxSpawnPerFrame caps new-droplet spawns in a single frame the same
// way the original clamps to a 0.016s-frame budget.
const maxSpawnPerFrame = int(0.016 * spawnRatePerSecond)

type droplet struct {
	pos, velocity [3]float32
	lifeSpan      float32
}

const vertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
uniform mat4 uViewMat;
uniform mat4 uProjMat;

void main() {
    gl_Position = uProjMat * uViewMat * vec4(aPos, 1.0);
    gl_PointSize = 3.0;
}
`

const fragmentShader = `
#version 410 core
out vec4 fragColor;

void main() {
    fragColor = vec4(0.6, 0.7, 0.9, 0.6);
}
`

// Rain owns the droplet pool and its GPU buffers.
type Rain struct {
	program    uint32
	viewMatLoc int32
	projMatLoc int32

	vao, posBuf uint32

	droplets []droplet
	lastUsed int

	// IndexStep controls which loop variable drives the per-droplet
	// simulation pass below. The original C++ (Map::drawRain) declares
	// two loop counters, i (the spawn loop) and j (the simulation
	// loop), but indexes particles_container[i] inside the j-loop — a
	// residual bug in the source this spec was distilled from. Rather
	// than guess which index was intended, it stays a configurable
	// knob: 1 selects the literal (buggy) original behavior, 0 selects
	// the corrected per-iteration index.
	IndexStep int
}

// New allocates the droplet pool (all initially dead) and compiles the
// rain shader program.
func New() *Rain {
	prog, err := shader.CompileProgram(vertexShader, fragmentShader)
	if err != nil {
		panic("rain: compile program: " + err.Error())
	}

	r := newRain()
	r.program = prog
	r.viewMatLoc = shader.MustGetUniform(prog, "uViewMat")
	r.projMatLoc = shader.MustGetUniform(prog, "uProjMat")

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.posBuf)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posBuf)
	gl.BufferData(gl.ARRAY_BUFFER, MaxDroplets*3*4, nil, gl.STREAM_DRAW)

	return r
}

// newRainForTest builds a droplet pool without touching the GL context,
// so the spawn/simulation bookkeeping can be unit tested.
func newRainForTest() *Rain {
	return newRain()
}

func newRain() *Rain {
	r := &Rain{
		droplets:  make([]droplet, MaxDroplets),
		IndexStep: 0,
	}
	for i := range r.droplets {
		r.droplets[i].lifeSpan = -1.0
	}
	return r
}

// findDeadDroplet returns the index of a droplet with lifeSpan < 0,
// scanning forward from the last slot reused (matching the original's
// FindDeadDroplet two-pass scan).
func (r *Rain) findDeadDroplet() int {
	for i := r.lastUsed; i < len(r.droplets); i++ {
		if r.droplets[i].lifeSpan < 0 {
			r.lastUsed = i
			return i
		}
	}
	for i := 0; i < r.lastUsed; i++ {
		if r.droplets[i].lifeSpan < 0 {
			r.lastUsed = i
			return i
		}
	}
	return 0
}

// Draw spawns new droplets, advances the simulation by dt, and renders
// the surviving droplets as point sprites near the camera.
func (r *Rain) Draw(cam *camera.Camera, dt float32) {
	newDroplets := int(dt * spawnRatePerSecond)
	if newDroplets > maxSpawnPerFrame {
		newDroplets = maxSpawnPerFrame
	}

	var spawnIdx int
	for spawnIdx = 0; spawnIdx < newDroplets; spawnIdx++ {
		idx := r.findDeadDroplet()
		d := &r.droplets[idx]
		d.lifeSpan = dropletLifespan
		d.pos = [3]float32{
			float32(rand.Intn(100)+1) - 50,
			float32(rand.Intn(10) + 100),
			float32(rand.Intn(100)+1) - 50,
		}
		windX := float32(rand.Intn(10))/70.0 + 2.5
		windZ := float32(rand.Intn(10))/70.0 + 2.5
		d.velocity = [3]float32{windX, 0, windZ}
	}

	positions := make([]float32, 0, len(r.droplets)*3)
	for simIdx := 0; simIdx < len(r.droplets); simIdx++ {
		// IndexStep==1 reproduces the original's particles_container[i]
		// indexing bug (i left dangling from the spawn loop above);
		// IndexStep==0 uses the simulation loop's own index.
		idx := simIdx
		if r.IndexStep == 1 {
			idx = spawnIdx
		}
		d := &r.droplets[idx]
		if d.lifeSpan <= 0 {
			continue
		}

		d.lifeSpan -= dt
		if d.lifeSpan > 0 {
			d.velocity[1] += -9.81 * dt * 0.5
			d.pos[0] += d.velocity[0] * dt
			d.pos[1] += d.velocity[1] * dt
			d.pos[2] += d.velocity[2] * dt
			positions = append(positions, d.pos[0], d.pos[1], d.pos[2])
		}
	}

	gl.UseProgram(r.program)
	shader.SetUniformMat4(r.viewMatLoc, cam.ViewTransform())
	shader.SetUniformMat4(r.projMatLoc, cam.ProjTransform())

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posBuf)
	if len(positions) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(positions)*4, gl.Ptr(&positions[0]))
	}
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DrawArrays(gl.POINTS, 0, int32(len(positions)/3))
	gl.Disable(gl.BLEND)

	gl.BindVertexArray(0)
}
