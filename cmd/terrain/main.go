// Command terrain is a standalone viewer for heightfield LOD terrain
// data: it loads a map directory (map.json plus per-cell hf.cell and
// texture-quadtree files), opens a window, and runs the selection/draw
// frame loop until the user quits.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-lod/internal/config"
	"github.com/Faultbox/terrain-lod/internal/engine/input"
	"github.com/Faultbox/terrain-lod/internal/engine/terrain"
	"github.com/Faultbox/terrain-lod/internal/engine/texture"
	"github.com/Faultbox/terrain-lod/internal/engine/view"
	"github.com/Faultbox/terrain-lod/internal/engine/window"
	"github.com/Faultbox/terrain-lod/internal/formats/hfcell"
	"github.com/Faultbox/terrain-lod/internal/formats/mapjson"
	"github.com/Faultbox/terrain-lod/internal/formats/tqt"
	"github.com/Faultbox/terrain-lod/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "terrain: load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "terrain: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	mapDir := config.MapDirArg()
	if mapDir == "" {
		mapDir = cfg.Data.MapDir
	}

	if err := run(cfg, mapDir); err != nil {
		logger.Error("fatal", zap.Error(err))
		fmt.Fprintf(os.Stderr, "terrain: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, mapDir string) error {
	mapData, gridEntries, err := mapjson.Load(filepath.Join(mapDir, "map.json"))
	if err != nil {
		return fmt.Errorf("load map.json: %w", err)
	}

	if err := loadCells(mapData, mapDir, gridEntries); err != nil {
		return fmt.Errorf("load cells: %w", err)
	}

	win, err := window.New(window.Config{
		Title:      "terrain-lod: " + mapData.Name,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer win.Close()

	v, err := view.New(win, mapData, view.Config{
		ErrorLimit:  cfg.Terrain.ErrorLimit,
		Wireframe:   false,
		RainEnabled: false,
		FrustumBias: cfg.Terrain.FrustumBias,
		MorphTime:   cfg.Terrain.MorphTime,
	}, cfg.Graphics.VAOCapacity, cfg.Graphics.TextureCapacity)
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}
	v.Rain().IndexStep = cfg.Terrain.RainStep

	if img, err := texture.LoadFile(filepath.Join(mapDir, "detail.tga")); err == nil {
		v.SetDetailTexture(texture.UploadGL(img))
	} else {
		logger.Warn("no detail texture loaded", zap.Error(err))
	}

	cam := v.Camera()
	cam.SetViewport(cfg.Graphics.Width, cfg.Graphics.Height)
	cam.SetFOV(60.0)
	cam.SetNearFar(0.1, 10000.0)

	startPos := mapData.NWCellCorner(0, 0)
	startPos.Y += float64(mapData.BaseElev)*float64(mapData.VScale) + 50.0
	cam.Move(startPos)

	in := input.New()

	const turnSpeed = 90.0 // degrees/second, for pitch/yaw/roll
	// Movement velocity scales with the map's horizontal/vertical unit
	// size, so a step covers a sensible fraction of a cell regardless of
	// how coarse or fine this map's hScale/vScale happen to be.
	moveSpeed := float64((mapData.HScale + mapData.VScale) / 2 * 5)

	const (
		errorLimitRefineFactor  = 1 / math.Sqrt2 // '+': shrink errorLimit, forcing finer detail
		errorLimitCoarsenFactor = math.Sqrt2     // '-': grow errorLimit, forcing coarser detail
	)

	last := time.Now()
	for {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if in.Update() {
			return nil
		}

		for _, e := range in.Events() {
			if e.Type != input.EventKeyDown {
				continue
			}
			switch e.Key {
			case sdl.SCANCODE_ESCAPE:
				return nil
			case sdl.SCANCODE_W:
				v.SetWireframe(!v.WireframeMode())
			case sdl.SCANCODE_R:
				v.SetRain(!v.RainMode())
			case sdl.SCANCODE_L:
				v.SetLighting(!v.LightingMode())
			case sdl.SCANCODE_F:
				v.SetFog(!v.FogMode())
			case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
				v.ScaleErrorLimit(errorLimitRefineFactor)
			case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
				v.ScaleErrorLimit(errorLimitCoarsenFactor)
			}
		}

		step := moveSpeed * float64(dt)
		if in.IsKeyPressed(sdl.SCANCODE_UP) {
			cam.Pitch(-turnSpeed * dt)
		}
		if in.IsKeyPressed(sdl.SCANCODE_DOWN) {
			cam.Pitch(turnSpeed * dt)
		}
		if in.IsKeyPressed(sdl.SCANCODE_LEFT) {
			cam.Yaw(-turnSpeed * dt)
		}
		if in.IsKeyPressed(sdl.SCANCODE_RIGHT) {
			cam.Yaw(turnSpeed * dt)
		}
		if in.IsKeyPressed(sdl.SCANCODE_B) {
			cam.Roll(-turnSpeed * dt)
		}
		if in.IsKeyPressed(sdl.SCANCODE_N) {
			cam.Roll(turnSpeed * dt)
		}
		if in.IsKeyPressed(sdl.SCANCODE_Y) {
			cam.Longitudinal(step)
		}
		if in.IsKeyPressed(sdl.SCANCODE_H) {
			cam.Longitudinal(-step)
		}
		if in.IsKeyPressed(sdl.SCANCODE_G) {
			cam.Lateral(-step)
		}
		if in.IsKeyPressed(sdl.SCANCODE_J) {
			cam.Lateral(step)
		}

		if err := v.Render(dt); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
}

// loadCells walks map.json's grid listing, loading each named cell
// directory's hf.cell mesh and its color/normal texture quadtrees.
func loadCells(m *terrain.Map, mapDir string, gridEntries []string) error {
	for i, name := range gridEntries {
		if name == "" {
			continue // unoccupied grid slot
		}
		row := i / int(m.NCols())
		col := i % int(m.NCols())

		cellDir := filepath.Join(mapDir, name)
		cell := terrain.NewCell(m, uint32(row), uint32(col), m.CellWidth())

		origin := m.NWCellCorner(row, col)
		if err := hfcell.Load(filepath.Join(cellDir, "hf.cell"), cell, origin, m.HScale, m.VScale); err != nil {
			return fmt.Errorf("cell (%d,%d): %w", row, col, err)
		}

		depth := cell.Depth()
		colorTree, err := tqt.Open(filepath.Join(cellDir, "color"), int(depth))
		if err != nil {
			return fmt.Errorf("cell (%d,%d) color tree: %w", row, col, err)
		}
		normTree, err := tqt.Open(filepath.Join(cellDir, "normal"), int(depth))
		if err != nil {
			return fmt.Errorf("cell (%d,%d) normal tree: %w", row, col, err)
		}
		cell.SetTextureTrees(colorTree, normTree)

		if err := m.SetCell(row, col, cell); err != nil {
			return fmt.Errorf("cell (%d,%d): %w", row, col, err)
		}
	}
	return nil
}
