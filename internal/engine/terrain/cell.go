package terrain

import (
	"fmt"

	"github.com/Faultbox/terrain-lod/internal/engine/rescache"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// MinNumLODs and MaxNumLODs bound how many levels of detail a cell's
// quadtree may carry, matching the "hf.cell" file format's Depth field.
const (
	MinNumLODs = 1
	MaxNumLODs = 9
)

// Cell is one grid square of a Map: a complete LOD quadtree of Tiles
// plus the color/normal texture quadtrees used to shade it.
type Cell struct {
	mapRef *Map
	row    uint32
	col    uint32
	width  uint32 // cell width in hScale units at LOD 0
	depth  int32  // number of LOD levels
	tiles  []Tile

	colorTree rescache.TextureSource
	normTree  rescache.TextureSource
}

// NewCell builds an unloaded cell; populate its quadtree with
// internal/formats/hfcell's Load/Decode (or SetTiles in tests) before
// use.
func NewCell(m *Map, row, col, width uint32) *Cell {
	return &Cell{mapRef: m, row: row, col: col, width: width}
}

func (c *Cell) Row() uint32   { return c.row }
func (c *Cell) Col() uint32   { return c.col }
func (c *Cell) Width() uint32 { return c.width }
func (c *Cell) Depth() int32  { return c.depth }

// IsLoaded reports whether the cell's tile array has been populated.
func (c *Cell) IsLoaded() bool { return c.tiles != nil }

// SetTiles installs a fully-built quadtree (depth levels, 0 coarsest)
// and points each tile back at this cell. Tiles keep the id, LOD,
// row/col and bounding box they were built with; SetTiles computes none
// of them. Used by internal/formats/hfcell after decoding a cell's mesh
// data, and directly by tests.
func (c *Cell) SetTiles(depth int32, tiles []Tile) error {
	if depth < MinNumLODs || depth > MaxNumLODs {
		return fmt.Errorf("terrain: cell (%d,%d) depth %d out of range [%d,%d]", c.row, c.col, depth, MinNumLODs, MaxNumLODs)
	}
	c.depth = depth
	c.tiles = tiles
	for i := range c.tiles {
		c.tiles[i].cell = c
	}
	return nil
}

// SetTextureTrees attaches the decoded color and normal-map texture
// quadtrees a cell draws from.
func (c *Cell) SetTextureTrees(color, norm rescache.TextureSource) {
	c.colorTree = color
	c.normTree = norm
}

func (c *Cell) ColorTree() rescache.TextureSource { return c.colorTree }
func (c *Cell) NormTree() rescache.TextureSource  { return c.normTree }

// Root returns the cell's coarsest tile (index 0), the entry point for
// a frame's TileSet/DrawChunks walk.
func (c *Cell) Root() *Tile { return c.tile(0) }

func (c *Cell) tile(id uint32) *Tile {
	if int(id) >= len(c.tiles) {
		return nil
	}
	return &c.tiles[id]
}

// HScale/VScale are the horizontal and vertical unit sizes the cell's
// packed vertex coordinates are expressed in.
func (c *Cell) HScale() float32 { return c.mapRef.HScale }
func (c *Cell) VScale() float32 { return c.mapRef.VScale }

// NWCorner returns the world-space position of this cell's NW corner.
func (c *Cell) NWCorner() vecmath.Vec3d {
	return c.mapRef.NWCellCorner(int(c.row), int(c.col))
}
