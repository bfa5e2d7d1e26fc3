// Package view drives one frame of terrain rendering: it walks every
// cell's tile quadtree to select what to draw (internal/engine/terrain),
// draws the selected chunks, then layers the skybox and rain passes on
// top, mirroring original_source/proj5/src/render.cxx's View::Render.
package view

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terrain-lod/internal/engine/camera"
	"github.com/Faultbox/terrain-lod/internal/engine/frustum"
	"github.com/Faultbox/terrain-lod/internal/engine/rain"
	"github.com/Faultbox/terrain-lod/internal/engine/rescache"
	"github.com/Faultbox/terrain-lod/internal/engine/shader"
	"github.com/Faultbox/terrain-lod/internal/engine/skybox"
	"github.com/Faultbox/terrain-lod/internal/engine/terrain"
	"github.com/Faultbox/terrain-lod/internal/engine/window"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// meshColor gives each LOD level a distinct wireframe tint, matching
// render.cxx's MeshColor table.
var meshColor = [terrain.MaxNumLODs][4]float32{
	{1, 1, 0, 1}, {1, 0, 1, 1}, {0, 1, 1, 1},
	{1, 0.5, 0.5, 1}, {0.5, 1, 0.5, 1}, {0.5, 0.5, 1, 1},
	{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1},
}

// Config holds the tunable parameters of a View, sourced from
// config.TerrainConfig.
type Config struct {
	ErrorLimit  float32
	Wireframe   bool
	RainEnabled bool
	FrustumBias float64
	MorphTime   float32
}

// View owns the GPU-resource caches, shader programs, and per-frame
// camera/frustum state a terrain render pass needs. It implements
// terrain.View so *Tile.TileSet/DrawChunks can be driven without
// terrain importing this package.
type View struct {
	win *window.Window
	cam *camera.Camera
	frs *frustum.Frustum

	vaoCache *rescache.VAOCache
	texCache *rescache.TextureCache

	mapData *terrain.Map

	errorLimit   float32
	morphTime    float32
	wireframe    bool
	rainMode     bool
	lightingMode bool
	fogMode      bool

	wireframeProgram uint32
	texturedProgram  uint32

	wfScalarLoc, wfColorLoc, wfViewMatLoc, wfProjMatLoc, wfOriginLoc int32
	tScalarLoc, tViewMatLoc, tProjMatLoc, tOriginLoc                int32
	tTileWidthLoc, tColLoc, tRowLoc                                 int32
	tColorMapLoc, tNormalMapLoc, tDetailMapLoc, tRainLoc            int32
	tLightingLoc, tSunDirLoc, tSunIntensityLoc, tAmbientLoc         int32
	tFogLoc, tFogColorLoc, tFogDensityLoc                           int32

	detailTexture uint32

	sky  *skybox.Skybox
	rain *rain.Rain
}

// New builds a View bound to win's GL context, compiling shaders and
// allocating the VAO/texture caches with the given capacities.
func New(win *window.Window, m *terrain.Map, cfg Config, vaoCapacity, texCapacity int) (*View, error) {
	wfProg, err := shader.CompileProgram(wireframeVertexShader, wireframeFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("view: compile wireframe program: %w", err)
	}
	texProg, err := shader.CompileProgram(texturedVertexShader, texturedFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("view: compile textured program: %w", err)
	}

	sb, err := skybox.New()
	if err != nil {
		return nil, fmt.Errorf("view: init skybox: %w", err)
	}

	v := &View{
		win:              win,
		cam:              camera.New(),
		frs:              frustum.New(),
		vaoCache:         rescache.NewVAOCache(vaoCapacity),
		texCache:         rescache.NewTextureCache(texCapacity),
		mapData:          m,
		errorLimit:       cfg.ErrorLimit,
		morphTime:        cfg.MorphTime,
		wireframe:        cfg.Wireframe,
		rainMode:         cfg.RainEnabled,
		wireframeProgram: wfProg,
		texturedProgram:  texProg,
		sky:              sb,
		rain:             rain.New(),
	}

	v.wfScalarLoc = shader.MustGetUniform(wfProg, "uScalar")
	v.wfColorLoc = shader.MustGetUniform(wfProg, "uColor")
	v.wfViewMatLoc = shader.MustGetUniform(wfProg, "uViewMat")
	v.wfProjMatLoc = shader.MustGetUniform(wfProg, "uProjMat")
	v.wfOriginLoc = shader.MustGetUniform(wfProg, "uOrigin")

	v.tScalarLoc = shader.MustGetUniform(texProg, "uScalar")
	v.tViewMatLoc = shader.MustGetUniform(texProg, "uViewMat")
	v.tProjMatLoc = shader.MustGetUniform(texProg, "uProjMat")
	v.tOriginLoc = shader.MustGetUniform(texProg, "uOrigin")
	v.tTileWidthLoc = shader.MustGetUniform(texProg, "uTileWidth")
	v.tColLoc = shader.MustGetUniform(texProg, "uCol")
	v.tRowLoc = shader.MustGetUniform(texProg, "uRow")
	v.tColorMapLoc = shader.MustGetUniform(texProg, "uColorMap")
	v.tNormalMapLoc = shader.MustGetUniform(texProg, "uNormalMap")
	v.tDetailMapLoc = shader.MustGetUniform(texProg, "uDetailMap")
	v.tRainLoc = shader.MustGetUniform(texProg, "uRain")
	v.tLightingLoc = shader.MustGetUniform(texProg, "uLighting")
	v.tSunDirLoc = shader.MustGetUniform(texProg, "uSunDir")
	v.tSunIntensityLoc = shader.MustGetUniform(texProg, "uSunIntensity")
	v.tAmbientLoc = shader.MustGetUniform(texProg, "uAmbient")
	v.tFogLoc = shader.MustGetUniform(texProg, "uFog")
	v.tFogColorLoc = shader.MustGetUniform(texProg, "uFogColor")
	v.tFogDensityLoc = shader.MustGetUniform(texProg, "uFogDensity")

	if cfg.FrustumBias != 0 {
		v.frs.Bias = cfg.FrustumBias
	}

	return v, nil
}

// Camera returns the view's camera for caller-driven movement/look.
func (v *View) Camera() *camera.Camera { return v.cam }

// Rain returns the view's rain pass, so callers can tune its
// configurable particle-index knob.
func (v *View) Rain() *rain.Rain { return v.rain }

// SetWireframe toggles wireframe rendering mode.
func (v *View) SetWireframe(on bool) { v.wireframe = on }

// SetRain toggles the rain overlay.
func (v *View) SetRain(on bool) { v.rainMode = on }

// SetLighting toggles the diffuse sun/normal-map lighting term in the
// textured fragment shader.
func (v *View) SetLighting(on bool) { v.lightingMode = on }

// LightingMode reports whether lighting is currently enabled.
func (v *View) LightingMode() bool { return v.lightingMode }

// SetFog toggles distance fog. Has no visible effect on a map whose
// map.json carries no fog-color.
func (v *View) SetFog(on bool) { v.fogMode = on }

// FogMode reports whether fog is currently enabled.
func (v *View) FogMode() bool { return v.fogMode }

// minErrorLimit is the floor scaling down via ScaleErrorLimit will not
// cross, matching the "+"/"-" key binding's documented clamp.
const minErrorLimit = 0.5

// ScaleErrorLimit multiplies the current error limit by factor,
// flooring the result at minErrorLimit. Used by the "+" (factor =
// 1/√2, refine) and "−" (factor = √2, coarsen) key bindings.
func (v *View) ScaleErrorLimit(factor float32) {
	v.errorLimit *= factor
	if v.errorLimit < minErrorLimit {
		v.errorLimit = minErrorLimit
	}
}

// terrain.View implementation

func (v *View) VAOCache() terrain.VAOAcquirer         { return v.vaoCache }
func (v *View) TextureCache() terrain.TextureAcquirer { return v.texCache }
func (v *View) CameraPosition() vecmath.Vec3d        { return v.cam.Position() }
func (v *View) ErrorLimit() float32                  { return v.errorLimit }
func (v *View) WireframeMode() bool                  { return v.wireframe }
func (v *View) RainMode() bool                       { return v.rainMode }
func (v *View) MorphTime() float32                   { return v.morphTime }

func (v *View) ScreenError(dist, maxErr float32) float32 {
	return v.cam.ScreenError(dist, maxErr)
}

func (v *View) AABBOutside(box vecmath.AABBd) bool {
	return v.frs.AABBOutside(box)
}

func (v *View) DrawWireframeChunk(tile *terrain.Tile, t float32) {
	gl.UseProgram(v.wireframeProgram)
	shader.SetUniform4f(v.wfScalarLoc, v.mapData.HScale, v.mapData.VScale, v.mapData.HScale, v.mapData.VScale*t)
	shader.SetUniform4f(v.wfColorLoc, meshColor[tile.LOD()][0], meshColor[tile.LOD()][1], meshColor[tile.LOD()][2], meshColor[tile.LOD()][3])
	shader.SetUniformMat4(v.wfViewMatLoc, v.cam.ViewTransform())
	shader.SetUniformMat4(v.wfProjMatLoc, v.cam.ProjTransform())
	origin := v.cam.Translate(tile.BBox().Min)
	shader.SetUniform3f(v.wfOriginLoc, float32(origin.X), float32(origin.Y), float32(origin.Z))
}

func (v *View) DrawTexturedChunk(tile *terrain.Tile, t float32) {
	gl.UseProgram(v.texturedProgram)
	shader.SetUniform4f(v.tScalarLoc, v.mapData.HScale, v.mapData.VScale, v.mapData.HScale, v.mapData.VScale*t)
	shader.SetUniformMat4(v.tViewMatLoc, v.cam.ViewTransform())
	shader.SetUniformMat4(v.tProjMatLoc, v.cam.ProjTransform())
	origin := v.cam.Translate(tile.BBox().Min)
	shader.SetUniform3f(v.tOriginLoc, float32(origin.X), float32(origin.Y), float32(origin.Z))
	shader.SetUniform1i(v.tTileWidthLoc, int32(tile.Width()))
	shader.SetUniform1i(v.tColLoc, int32(tile.NWCol()))
	shader.SetUniform1i(v.tRowLoc, int32(tile.NWRow()))
	shader.SetUniform1i(v.tColorMapLoc, 0)
	shader.SetUniform1i(v.tNormalMapLoc, 1)
	shader.SetUniform1i(v.tDetailMapLoc, 2)
	shader.SetUniform1i(v.tRainLoc, boolToInt32(v.rainMode))

	shader.SetUniform1i(v.tLightingLoc, boolToInt32(v.lightingMode))
	shader.SetUniform3f(v.tSunDirLoc, v.mapData.SunDirection.X, v.mapData.SunDirection.Y, v.mapData.SunDirection.Z)
	shader.SetUniform3f(v.tSunIntensityLoc, v.mapData.SunIntensity[0], v.mapData.SunIntensity[1], v.mapData.SunIntensity[2])
	shader.SetUniform3f(v.tAmbientLoc, v.mapData.AmbientLight[0], v.mapData.AmbientLight[1], v.mapData.AmbientLight[2])

	shader.SetUniform1i(v.tFogLoc, boolToInt32(v.fogMode && v.mapData.HasFog))
	shader.SetUniform3f(v.tFogColorLoc, v.mapData.FogColor[0], v.mapData.FogColor[1], v.mapData.FogColor[2])
	shader.SetUniform1f(v.tFogDensityLoc, v.mapData.FogDensity)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Render runs one full frame: the resource-selection pass over every
// cell's quadtree, the draw pass, then the skybox and (if enabled)
// rain overlays, finishing with a buffer swap.
func (v *View) Render(dt float32) error {
	v.frs.Update(v.cam)

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	for r := 0; r < int(v.mapData.NRows()); r++ {
		for c := 0; c < int(v.mapData.NCols()); c++ {
			cell := v.mapData.Cell(r, c)
			if cell == nil || !cell.IsLoaded() {
				continue
			}
			cell.Root().TileSet(terrain.TileSearch, v, dt, cell.ColorTree(), cell.NormTree())
		}
	}

	if !v.wireframe {
		gl.ActiveTexture(gl.TEXTURE2)
		gl.BindTexture(gl.TEXTURE_2D, v.detailTexture)
	}

	for r := 0; r < int(v.mapData.NRows()); r++ {
		for c := 0; c < int(v.mapData.NCols()); c++ {
			cell := v.mapData.Cell(r, c)
			if cell == nil || !cell.IsLoaded() {
				continue
			}
			cell.Root().DrawChunks(v, dt)
		}
	}

	if !v.wireframe {
		gl.DepthMask(false)
		gl.DepthFunc(gl.LEQUAL)
		v.sky.Draw(v.cam, v.rainMode)
		gl.DepthMask(true)
	}

	if v.rainMode {
		v.rain.Draw(v.cam, dt)
	}

	v.win.SwapBuffers()
	return nil
}

// SetDetailTexture installs the GL texture id used for the fine detail
// overlay blended into every textured chunk.
func (v *View) SetDetailTexture(id uint32) { v.detailTexture = id }
