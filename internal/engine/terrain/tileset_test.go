package terrain

import (
	"testing"

	"github.com/Faultbox/terrain-lod/internal/engine/rescache"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// fakeVAO is a GL-free stand-in for *rescache.VAO.
type fakeVAO struct{ id int }

func (v *fakeVAO) Load(rescache.Chunk) {}
func (v *fakeVAO) Render()             {}

// fakeVAOCache mimics rescache.VAOCache's fixed-pool, free-list shape
// without touching a GL context, so TileSet/DrawChunks can be driven
// end to end in a test.
type fakeVAOCache struct {
	handles []*fakeVAO
	free    []int
}

func newFakeVAOCache(capacity int) *fakeVAOCache {
	c := &fakeVAOCache{}
	for i := 0; i < capacity; i++ {
		c.handles = append(c.handles, &fakeVAO{id: i})
		c.free = append(c.free, i)
	}
	return c
}

func (c *fakeVAOCache) Acquire() rescache.VAOHandle {
	if len(c.free) == 0 {
		panic("fakeVAOCache: exhausted")
	}
	idx := c.free[0]
	c.free = c.free[1:]
	return c.handles[idx]
}

func (c *fakeVAOCache) Release(h rescache.VAOHandle) {
	if h == nil {
		return
	}
	c.free = append(c.free, h.(*fakeVAO).id)
}

func (c *fakeVAOCache) inUse() int { return len(c.handles) - len(c.free) }

// fakeTexture is a GL-free stand-in for *rescache.Texture.
type fakeTexture struct{ key rescache.TileKey }

func (t *fakeTexture) Activate(uint32) {}

// fakeTextureCache mimics rescache.TextureCache's refcounted Make/Release
// contract without decoding or uploading anything.
type fakeTextureCache struct {
	refs map[rescache.TileKey]int
}

func newFakeTextureCache() *fakeTextureCache {
	return &fakeTextureCache{refs: map[rescache.TileKey]int{}}
}

func (c *fakeTextureCache) Make(_ rescache.TextureSource, key rescache.TileKey) (rescache.TextureHandle, error) {
	c.refs[key]++
	return &fakeTexture{key: key}, nil
}

func (c *fakeTextureCache) Release(key rescache.TileKey) {
	c.refs[key]--
}

func (c *fakeTextureCache) inUse() int {
	n := 0
	for _, v := range c.refs {
		if v > 0 {
			n++
		}
	}
	return n
}

type drawCall struct {
	tile *Tile
	t    float32
}

// fakeView implements terrain.View entirely in memory so TileSet and
// DrawChunks can be exercised without a live GL context or camera.
type fakeView struct {
	camPos     vecmath.Vec3d
	errLimit   float32
	errorScale float32
	outside    bool
	wireframe  bool
	morphTime  float32

	vaoCache *fakeVAOCache
	texCache *fakeTextureCache

	drawTex  []drawCall
	drawWire []drawCall
}

func newFakeView(vaoCapacity int) *fakeView {
	return &fakeView{
		errorScale: 1,
		morphTime:  DefaultMorphTime,
		vaoCache:   newFakeVAOCache(vaoCapacity),
		texCache:   newFakeTextureCache(),
	}
}

func (f *fakeView) CameraPosition() vecmath.Vec3d { return f.camPos }
func (f *fakeView) ErrorLimit() float32           { return f.errLimit }

// ScreenError ignores distance so tests can control whether a tile's
// error check passes purely via its chunk's MaxError and the view's
// ErrorLimit, without needing real camera/bbox geometry.
func (f *fakeView) ScreenError(_, maxErr float32) float32 { return maxErr * f.errorScale }
func (f *fakeView) AABBOutside(vecmath.AABBd) bool        { return f.outside }
func (f *fakeView) VAOCache() VAOAcquirer                 { return f.vaoCache }
func (f *fakeView) TextureCache() TextureAcquirer         { return f.texCache }
func (f *fakeView) WireframeMode() bool                   { return f.wireframe }
func (f *fakeView) MorphTime() float32                    { return f.morphTime }

func (f *fakeView) DrawWireframeChunk(tile *Tile, t float32) {
	f.drawWire = append(f.drawWire, drawCall{tile, t})
}

func (f *fakeView) DrawTexturedChunk(tile *Tile, t float32) {
	f.drawTex = append(f.drawTex, drawCall{tile, t})
}

// newQuadCell builds a depth-2 cell: one root plus its four (leaf)
// children, with distinct MaxError values so a test can make the
// root's error check fail while the children's still passes.
func newQuadCell(t *testing.T, rootMaxError, childMaxError float32) *Cell {
	t.Helper()
	m := NewMap(1, 1)
	m.HScale, m.VScale, m.CellSize = 1, 1, 16
	c := NewCell(m, 0, 0, 16)

	tiles := make([]Tile, 5)
	tiles[0] = Tile{chunk: Chunk{MaxError: rootMaxError}, bbox: vecmath.AABBd{Max: vecmath.Vec3d{X: 16, Y: 1, Z: 16}}}
	for i := 1; i < 5; i++ {
		tiles[i] = Tile{lod: 1, chunk: Chunk{MaxError: childMaxError}, bbox: vecmath.AABBd{Max: vecmath.Vec3d{X: 8, Y: 1, Z: 8}}}
	}
	if err := c.SetTiles(2, tiles); err != nil {
		t.Fatal(err)
	}
	return c
}

// A static camera looking at a single-tile cell with a generous error
// limit settles on drawing the root exactly once, acquiring exactly
// one VAO and one color/normal texture pair.
func TestLeafTileAcquiresOnceAndDrawsOnce(t *testing.T) {
	root := newTestCell().Root()
	v := newFakeView(4)
	v.errLimit = 1000

	root.TileSet(TileSearch, v, 0.1, nil, nil)

	if root.Status() != StatusDrawn {
		t.Fatalf("drawStatus = %v, want StatusDrawn", root.Status())
	}
	if root.Morph() != MorphNone {
		t.Fatalf("morphFrom = %v, want MorphNone", root.Morph())
	}
	if got := v.vaoCache.inUse(); got != 1 {
		t.Fatalf("VAOs in use = %d, want 1", got)
	}
	if got := v.texCache.inUse(); got != 2 {
		t.Fatalf("textures in use = %d, want 2 (color + normal)", got)
	}

	root.DrawChunks(v, 0.1)
	if len(v.drawTex) != 1 || len(v.drawWire) != 0 {
		t.Fatalf("got %d textured / %d wireframe draw calls, want exactly 1 textured", len(v.drawTex), len(v.drawWire))
	}
	if v.drawTex[0].t != 0 {
		t.Errorf("draw t = %v, want 0 for a stable, non-morphing tile", v.drawTex[0].t)
	}
}

// Shrinking the error margin below what the root's chunk can satisfy
// -- whether from the camera moving closer or the player tightening
// the error limit -- forces the selection one level finer: the root
// releases its resources and each child enters a fade-in from the
// coarser parent shape (MorphToCoarser, currentT counting down from 1).
func TestShrinkingErrorMarginRefinesIntoChildren(t *testing.T) {
	c := newQuadCell(t, 100, 10)
	root := c.Root()
	v := newFakeView(8)

	root.drawStatus = StatusDrawn
	root.vao = v.vaoCache.Acquire()
	root.texture, _ = v.texCache.Make(nil, root.textureKey())
	root.normMap, _ = v.texCache.Make(nil, root.normMapKey())

	v.errLimit = 50 // clears the children's error (10) but not the root's (100)

	root.TileSet(TileSearch, v, 0.1, nil, nil)

	if root.Status() != StatusNotDrawn {
		t.Fatalf("root drawStatus = %v, want StatusNotDrawn once its error margin fails", root.Status())
	}
	for i := 0; i < 4; i++ {
		child := root.Child(i)
		if child.Status() != StatusDrawn {
			t.Errorf("child %d drawStatus = %v, want StatusDrawn", i, child.Status())
		}
		if child.Morph() != MorphToCoarser {
			t.Errorf("child %d morphFrom = %v, want MorphToCoarser", i, child.Morph())
		}
		if child.CurrentT() != 1.0 {
			t.Errorf("child %d currentT = %v, want 1.0 at the start of its fade-in", i, child.CurrentT())
		}
	}
	if got := v.vaoCache.inUse(); got != 4 {
		t.Fatalf("VAOs in use = %d, want 4 (root released, one acquired per child)", got)
	}
}

// AbortMorphUp cancels a MorphToFiner transition (children blending
// into their parent's shape) that is still mid-flight, releasing every
// child's resources and resetting its morph state; TileSet relies on it
// when a parent in that state fails its error check again, e.g. because
// the camera moved back in.
func TestAbortMorphUpResetsChildrenMidMorph(t *testing.T) {
	c := newQuadCell(t, 100, 10)
	root := c.Root()
	v := newFakeView(8)

	root.morphFrom = MorphToFiner
	root.drawStatus = StatusNotDrawn

	for i := 0; i < 4; i++ {
		child := root.Child(i)
		child.drawStatus = StatusDrawn
		child.morphFrom = MorphToFiner
		child.currentT = 0.3
		child.vao = v.vaoCache.Acquire()
		child.texture, _ = v.texCache.Make(nil, child.textureKey())
		child.normMap, _ = v.texCache.Make(nil, child.normMapKey())
	}

	root.AbortMorphUp(v)

	for i := 0; i < 4; i++ {
		child := root.Child(i)
		if child.Morph() != MorphNone {
			t.Errorf("child %d morphFrom = %v, want MorphNone", i, child.Morph())
		}
		if child.CurrentT() != 0 {
			t.Errorf("child %d currentT = %v, want 0", i, child.CurrentT())
		}
		if child.Status() != StatusNotDrawn {
			t.Errorf("child %d drawStatus = %v, want StatusNotDrawn", i, child.Status())
		}
	}
	if got := v.vaoCache.inUse(); got != 0 {
		t.Fatalf("VAOs in use = %d, want 0 once every morph is aborted", got)
	}
}

// Turning a drawn tile out of the frustum releases its resources and
// marks it (and its subtree) as culled, so DrawChunks issues no draw
// call for it.
func TestFrustumFailureReleasesAndSuppressesDraw(t *testing.T) {
	root := newTestCell().Root()
	v := newFakeView(2)
	v.errLimit = 1000

	root.TileSet(TileSearch, v, 0.1, nil, nil) // settle: root acquires and draws

	v.outside = true // e.g. a 180-degree yaw
	root.TileSet(TileSearch, v, 0.1, nil, nil)

	if root.Status() != StatusOutsideFrustum {
		t.Fatalf("drawStatus = %v, want StatusOutsideFrustum", root.Status())
	}
	if got := v.vaoCache.inUse(); got != 0 {
		t.Fatalf("VAOs in use = %d, want 0 once the tile leaves the frustum", got)
	}

	v.drawTex, v.drawWire = nil, nil
	root.DrawChunks(v, 0.1)
	if len(v.drawTex) != 0 || len(v.drawWire) != 0 {
		t.Fatalf("got %d/%d draw calls, want none for a culled tile", len(v.drawTex), len(v.drawWire))
	}
}

// A single oversized frame (e.g. after a stall) must not leave a
// MorphToFiner transition stuck mid-flight forever: if the remaining
// morph time fits within dt, Draw finishes the transition in that one
// step, releasing the tile's resources without issuing a draw call for
// the frame that completes it.
func TestDrawCompletesMorphWithinASingleJitteredFrame(t *testing.T) {
	tile := newTestCell().Root()
	v := newFakeView(1)
	v.morphTime = 2.5

	tile.drawStatus = StatusDrawn
	tile.morphFrom = MorphToFiner
	tile.currentT = 0.75
	tile.vao = v.vaoCache.Acquire()
	tile.texture, _ = v.texCache.Make(nil, tile.textureKey())
	tile.normMap, _ = v.texCache.Make(nil, tile.normMapKey())

	tile.Draw(v, 0.625) // (1 - 0.75) * 2.5 == 0.625s remaining

	if tile.Morph() != MorphNone {
		t.Fatalf("morphFrom = %v, want MorphNone once the morph completes", tile.Morph())
	}
	if tile.CurrentT() != 0 {
		t.Fatalf("currentT = %v, want 0 after completion resets it", tile.CurrentT())
	}
	if len(v.drawTex) != 0 {
		t.Fatalf("got %d draw calls, want none on the completing frame", len(v.drawTex))
	}
	if got := v.vaoCache.inUse(); got != 0 {
		t.Fatalf("VAOs in use = %d, want 0 once the morph completes", got)
	}
}

// A normal (small) frame only advances the morph timer; it must not
// jump straight to completion or skip the draw call for that frame.
func TestDrawAdvancesCurrentTMonotonicallyWithoutCompleting(t *testing.T) {
	tile := newTestCell().Root()
	v := newFakeView(1)
	v.morphTime = 2.5

	tile.drawStatus = StatusDrawn
	tile.morphFrom = MorphToFiner
	tile.currentT = 0.1
	tile.vao = v.vaoCache.Acquire()
	tile.texture, _ = v.texCache.Make(nil, tile.textureKey())
	tile.normMap, _ = v.texCache.Make(nil, tile.normMapKey())

	initial := tile.currentT
	tile.Draw(v, 0.016)

	if tile.CurrentT() <= initial {
		t.Fatalf("currentT = %v, want progress beyond %v", tile.CurrentT(), initial)
	}
	if tile.CurrentT() >= 1.0 {
		t.Fatalf("currentT = %v, want still short of completion", tile.CurrentT())
	}
	if tile.Morph() != MorphToFiner {
		t.Fatalf("morphFrom = %v, want MorphToFiner mid-fade", tile.Morph())
	}
	if len(v.drawTex) != 1 {
		t.Fatalf("got %d draw calls, want exactly 1 mid-fade", len(v.drawTex))
	}
}

// Resource acquisition and release stay balanced across a full
// settle-then-cull round trip: nothing leaks, and nothing is released
// twice.
func TestResourceBalanceAcrossSettleAndCull(t *testing.T) {
	root := newTestCell().Root()
	v := newFakeView(1)
	v.errLimit = 1000

	root.TileSet(TileSearch, v, 0.1, nil, nil)
	if got := v.vaoCache.inUse(); got != 1 {
		t.Fatalf("VAOs in use after settling = %d, want 1", got)
	}

	v.outside = true
	root.TileSet(TileSearch, v, 0.1, nil, nil)

	if got := v.vaoCache.inUse(); got != 0 {
		t.Fatalf("VAOs in use after culling = %d, want 0", got)
	}
	if got := v.texCache.inUse(); got != 0 {
		t.Fatalf("textures in use after culling = %d, want 0", got)
	}
	if len(v.vaoCache.free) != len(v.vaoCache.handles) {
		t.Fatalf("free-list length = %d, want the full pool (%d) back", len(v.vaoCache.free), len(v.vaoCache.handles))
	}
}
