// Package terrain implements the recursive quadtree tile selection and
// geometric-morph state machine that drives the LOD renderer: for every
// map cell, a quadtree of Tiles is walked each frame to decide which
// node's mesh chunk best balances screen-space error against frustum
// visibility, with older/newer chunks cross-fading ("morphing") rather
// than popping.
package terrain

import (
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-lod/internal/engine/rescache"
	"github.com/Faultbox/terrain-lod/internal/logger"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// ReleaseMode is the purpose of a particular TileSet descent: whether
// the caller is still searching for the tile to draw, has already
// found one and is releasing the rest, or is walking a subtree known
// to be outside the frustum or mid-morph.
type ReleaseMode int

const (
	OutsideFrustum ReleaseMode = iota
	FoundTile
	TileSearch
	MorphDown
	MorphUp
)

// DrawStatus records whether a tile was selected for drawing this
// frame, is not drawn (because an ancestor or descendant was selected
// instead), or was culled by the frustum.
type DrawStatus int

const (
	StatusOutsideFrustum DrawStatus = iota
	StatusNotDrawn
	StatusDrawn
)

// MorphDirection tracks which way a tile's geometry is cross-fading.
// Each vertex is offset by its morphDelta scaled by currentT, so
// currentT == 1 puts the tile on its parent's (coarser) surface and
// currentT == 0 on its own.
//
// MorphToCoarser is set on a tile that has just replaced its released
// parent (TileSet in MorphDown mode): it is drawn with currentT counting
// down from 1 to 0, blending from the parent's shape into its own.
// MorphToFiner is set on a parent whose error check passes again and on
// its four children: the parent keeps its resources but is not drawn,
// while each child is drawn with currentT counting up from 0 to 1,
// blending into the parent's shape, and is released on reaching 1;
// DrawChunks then draws the parent again. MorphNone marks a tile outside
// of any transition.
type MorphDirection int

const (
	MorphToFiner   MorphDirection = -1
	MorphNone      MorphDirection = 0
	MorphToCoarser MorphDirection = 1
)

// ErrorChecker supplies the camera state ErrorCheck needs to decide
// whether a tile's geometric error is small enough to draw.
type ErrorChecker interface {
	CameraPosition() vecmath.Vec3d
	ScreenError(dist, maxErr float32) float32
	ErrorLimit() float32
}

// FrustumChecker supplies the frustum-culling test FrustumCheck needs.
type FrustumChecker interface {
	AABBOutside(box vecmath.AABBd) bool
}

// View is the subset of per-frame renderer state a Tile needs to
// select and draw itself. Implemented by internal/engine/view.View;
// declared narrowly here so terrain does not import view (which in
// turn depends on terrain), avoiding an import cycle.
type View interface {
	ErrorChecker
	FrustumChecker
	VAOCache() VAOAcquirer
	TextureCache() TextureAcquirer
	WireframeMode() bool
	MorphTime() float32
	DrawWireframeChunk(tile *Tile, t float32)
	DrawTexturedChunk(tile *Tile, t float32)
}

// VAOAcquirer is the acquire/release contract Tile needs from a VAO
// pool. *rescache.VAOCache implements it for real rendering; tests can
// supply a GL-free fake to drive TileSet/DrawChunks end to end.
type VAOAcquirer interface {
	Acquire() rescache.VAOHandle
	Release(rescache.VAOHandle)
}

// TextureAcquirer is the acquire/release contract Tile needs from a
// texture cache. *rescache.TextureCache implements it for real
// rendering; tests can supply a GL-free fake to drive TileSet/DrawChunks
// end to end.
type TextureAcquirer interface {
	Make(src rescache.TextureSource, key rescache.TileKey) (rescache.TextureHandle, error)
	Release(key rescache.TileKey)
}

// Vertex is the packed per-vertex mesh data for one tile's chunk,
// expressed relative to the owning cell's NW corner (see Cell.HScale /
// Cell.VScale for the unit conversion).
type Vertex struct {
	X, Y, Z    int16
	MorphDelta int16
}

// Chunk is the LOD mesh attached to one Tile.
type Chunk struct {
	MaxError float32
	MinY     int16
	MaxY     int16
	Vertices []Vertex
	Indices  []uint16
}

// Tile is one node of a cell's LOD quadtree. Index 0 is the root (the
// coarsest LOD); node i's four children live at indices 4i+1..4i+4.
type Tile struct {
	cell *Cell
	id   uint32
	row  uint32
	col  uint32
	lod  int32

	chunk Chunk
	bbox  vecmath.AABBd

	drawStatus DrawStatus
	morphFrom  MorphDirection
	currentT   float32

	vao     rescache.VAOHandle
	texture rescache.TextureHandle
	normMap rescache.TextureHandle
}

// NewTile builds a tile with the given identity and mesh data but no
// owning cell; Cell.SetTiles assigns the owning cell (and thereby
// NumChildren/Child's ability to resolve siblings) when the tile is
// installed into a cell's quadtree. Used by internal/formats/hfcell
// while decoding a cell's binary mesh data.
func NewTile(id, row, col uint32, lod int32, chunk Chunk) *Tile {
	return &Tile{id: id, row: row, col: col, lod: lod, chunk: chunk}
}

// SetBBox installs the tile's precomputed world-space bounding box.
func (t *Tile) SetBBox(box vecmath.AABBd) { t.bbox = box }

// NWRow and NWCol are the tile's NW vertex position in its cell's grid.
func (t *Tile) NWRow() uint32 { return t.row }
func (t *Tile) NWCol() uint32 { return t.col }

// LOD is the tile's level of detail, 0 being coarsest.
func (t *Tile) LOD() int32 { return t.lod }

// Width is the tile's width in hScale units; the number of vertices
// across is Width()+1.
func (t *Tile) Width() uint32 { return t.cell.width >> uint(t.lod) }

// Chunk returns the tile's mesh data.
func (t *Tile) Chunk() *Chunk { return &t.chunk }

// BBox returns the tile's world-space bounding box.
func (t *Tile) BBox() vecmath.AABBd { return t.bbox }

// CurrentT is the tile's morph interpolation parameter in [0,1].
func (t *Tile) CurrentT() float32 { return t.currentT }

// Status and Morph expose the tile's scheduling state for tests and
// for Cell/Map-level diagnostics.
func (t *Tile) Status() DrawStatus    { return t.drawStatus }
func (t *Tile) Morph() MorphDirection { return t.morphFrom }

// Child returns the tile's i'th child (0-3), or nil if the tile is a
// leaf (its LOD is the cell's finest).
func (t *Tile) Child(i int) *Tile {
	if t.lod+1 >= t.cell.depth {
		return nil
	}
	return t.cell.tile(nwChild(t.id) + uint32(i))
}

// NumChildren is 4 for any tile whose LOD is not the cell's finest, 0
// otherwise.
func (t *Tile) NumChildren() int {
	if t.lod+1 < t.cell.depth {
		return 4
	}
	return 0
}

// nwChild returns the index of node id's first (NW) child in the flat
// quadtree array: children of node i live at 4i+1..4i+4.
func nwChild(id uint32) uint32 { return 4*id + 1 }

// FrustumCheck reports whether t's bounding box intersects or lies
// inside the view frustum. It returns false only when every one of the
// box's 8 corners lies behind a single plane.
func (t *Tile) FrustumCheck(v FrustumChecker) bool {
	return !v.AABBOutside(t.bbox)
}

// ErrorCheck reports whether the tile's chunk would project within the
// view's configured screen-space error tolerance, given the camera's
// current distance to the tile's bounding box.
func (t *Tile) ErrorCheck(v ErrorChecker) bool {
	d := t.bbox.DistanceToPoint(v.CameraPosition())
	scErr := v.ScreenError(float32(d), t.chunk.MaxError)
	return v.ErrorLimit() >= scErr
}

// Release returns the tile's GPU resources to their caches and resets
// its scheduling state, leaving drawStatus set to status.
func (t *Tile) Release(v View, status DrawStatus) {
	t.morphFrom = MorphNone
	t.drawStatus = status
	t.currentT = 0

	if t.vao != nil {
		v.VAOCache().Release(t.vao)
		t.vao = nil
	}
	if t.texture != nil {
		v.TextureCache().Release(t.textureKey())
		t.texture = nil
	}
	if t.normMap != nil {
		v.TextureCache().Release(t.normMapKey())
		t.normMap = nil
	}
}

// AbortMorphUp cancels the in-progress MorphToFiner transition on every
// child of t that is mid-morph, releasing their resources and recursing
// into their own subtrees.
func (t *Tile) AbortMorphUp(v View) {
	if t.NumChildren() == 0 {
		return
	}
	for i := 0; i < 4; i++ {
		c := t.Child(i)
		if c.morphFrom == MorphToFiner {
			c.morphFrom = MorphNone
			c.currentT = 0
			c.Release(v, StatusNotDrawn)
			logger.Debug("morph aborted", zap.Uint32("tile", c.id), zap.Int32("lod", c.lod))
		}
	}
	for i := 0; i < 4; i++ {
		t.Child(i).AbortMorphUp(v)
	}
}

func (t *Tile) textureKey() rescache.TileKey {
	return rescache.TileKey{Tree: int(t.cell.row)*1000 + int(t.cell.col), Lod: int(t.lod), Row: int(t.row / t.Width()), Col: int(t.col / t.Width())}
}

func (t *Tile) normMapKey() rescache.TileKey {
	k := t.textureKey()
	k.Tree = -k.Tree - 1 // distinguish the normal-map tree from the color tree sharing the same cell
	return k
}

func (t *Tile) acquireResources(v View, colorTree, normTree rescache.TextureSource) error {
	t.vao = v.VAOCache().Acquire()
	t.vao.Load(rescache.Chunk{
		MaxError: t.chunk.MaxError,
		MinY:     t.chunk.MinY,
		MaxY:     t.chunk.MaxY,
		Vertices: toRescacheVertices(t.chunk.Vertices),
		Indices:  t.chunk.Indices,
	})

	tex, err := v.TextureCache().Make(colorTree, t.textureKey())
	if err != nil {
		return err
	}
	t.texture = tex

	nmap, err := v.TextureCache().Make(normTree, t.normMapKey())
	if err != nil {
		return err
	}
	t.normMap = nmap

	t.drawStatus = StatusDrawn
	return nil
}

func toRescacheVertices(vs []Vertex) []rescache.Vertex {
	out := make([]rescache.Vertex, len(vs))
	for i, v := range vs {
		out[i] = rescache.Vertex{X: v.X, Y: v.Y, Z: v.Z, MorphDelta: v.MorphDelta}
	}
	return out
}
