package terrain

import (
	"fmt"

	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// Cell size bounds the map.json "cell-size" field must satisfy: a
// power of two in this range.
const (
	MinCellSize = 64
	MaxCellSize = 4096
)

// Map is a grid of Cells describing one heightfield terrain, plus the
// global scale and lighting parameters every cell is rendered with.
type Map struct {
	Name string

	HScale float32 // world units per horizontal grid step
	VScale float32 // world units per vertical (height) unit

	BaseElev float32
	MinElev  float32
	MaxElev  float32
	MinSky   float32
	MaxSky   float32

	Width, Height uint32 // map size in vertices
	CellSize      uint32 // vertices per cell edge, power of two

	HasColorMap  bool
	HasNormalMap bool
	HasWaterMap  bool

	SunDirection vecmath.Vec3
	SunIntensity [3]float32
	AmbientLight [3]float32

	HasFog     bool
	FogColor   [3]float32
	FogDensity float32

	nRows, nCols uint32
	grid         []*Cell
}

// NewMap builds an empty map with the given grid dimensions; callers
// populate grid[r][c] cells via SetCell after loading each cell's data.
func NewMap(nRows, nCols uint32) *Map {
	return &Map{
		nRows: nRows,
		nCols: nCols,
		grid:  make([]*Cell, nRows*nCols),
	}
}

func (m *Map) NRows() uint32 { return m.nRows }
func (m *Map) NCols() uint32 { return m.nCols }

// CellWidth is the width (in hScale units) of every cell in the map.
func (m *Map) CellWidth() uint32 { return m.CellSize }

func (m *Map) cellIdx(r, c int) int { return r*int(m.nCols) + c }

// Cell returns the map's (r,c) grid cell, or nil if out of range.
func (m *Map) Cell(r, c int) *Cell {
	if r < 0 || c < 0 || r >= int(m.nRows) || c >= int(m.nCols) {
		return nil
	}
	return m.grid[m.cellIdx(r, c)]
}

// SetCell installs a cell at the given grid position.
func (m *Map) SetCell(r, c int, cell *Cell) error {
	if r < 0 || c < 0 || r >= int(m.nRows) || c >= int(m.nCols) {
		return fmt.Errorf("terrain: cell position (%d,%d) out of range for %dx%d map", r, c, m.nRows, m.nCols)
	}
	m.grid[m.cellIdx(r, c)] = cell
	return nil
}

// NWCellCorner returns the world-space position of the NW corner of
// grid cell (r,c).
func (m *Map) NWCellCorner(r, c int) vecmath.Vec3d {
	return vecmath.Vec3d{
		X: float64(uint32(c)*m.CellSize) * float64(m.HScale),
		Y: float64(m.BaseElev) * float64(m.VScale),
		Z: float64(uint32(r)*m.CellSize) * float64(m.HScale),
	}
}
