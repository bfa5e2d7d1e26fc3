package terrain

import "github.com/Faultbox/terrain-lod/internal/engine/rescache"

// DefaultMorphTime is the duration, in seconds, over which a tile's
// geometry cross-fades between LOD levels when the View's MorphTime is
// not positive. The View's own value comes from config.TerrainConfig
// rather than the fixed 2.5s the original renderer hardcoded.
const DefaultMorphTime = 2.5

// TileSet walks the tile's subtree deciding which node to draw this
// frame, acquiring or releasing GPU resources as tiles enter or leave
// the selected set, and kicking off morph transitions between LOD
// levels. mode records why this particular call is happening: whether
// the caller is still searching for a tile to draw (TileSearch),
// explicitly acquiring resources for a morph target (MorphUp/MorphDown),
// or cleaning up a subtree that's already resolved (FoundTile,
// OutsideFrustum).
func (t *Tile) TileSet(mode ReleaseMode, v View, dt float32, colorTree, normTree rescache.TextureSource) {
	switch mode {
	case TileSearch, MorphDown:
		t.tileSetSearching(mode, v, dt, colorTree, normTree)
	case FoundTile:
		t.tileSetFoundTile(v, dt, colorTree, normTree)
	case OutsideFrustum:
		t.tileSetOutsideFrustum(v, dt, colorTree, normTree)
	case MorphUp:
		t.tileSetMorphUp(v, colorTree, normTree)
	}
}

func (t *Tile) tileSetSearching(mode ReleaseMode, v View, dt float32, colorTree, normTree rescache.TextureSource) {
	if !t.FrustumCheck(v) {
		t.tileSetHandleOutsideFrustum(v, dt, colorTree, normTree)
		return
	}

	if !t.ErrorCheck(v) {
		t.tileSetHandleInsufficientDetail(mode, v, dt, colorTree, normTree)
		return
	}

	// error margin is satisfactory: this is the coarsest tile fine enough
	// to draw.
	if t.drawStatus != StatusDrawn && t.morphFrom != MorphToFiner {
		if err := t.acquireResources(v, colorTree, normTree); err != nil {
			// Resource caches are sized for the expected working set; a
			// failure here means the configured capacity is too small for
			// the current view, which we treat as fatal rather than
			// silently dropping detail.
			panic(err)
		}

		if t.NumChildren() != 0 && t.morphFrom == MorphNone && mode == TileSearch {
			t.beginMorphDownToChildren(v, dt, colorTree, normTree)
			return
		}
	}

	if mode == MorphDown {
		t.drawStatus = StatusDrawn
		t.currentT = 1.0
		t.morphFrom = MorphToCoarser
	}

	if t.NumChildren() != 0 {
		for i := 0; i < 4; i++ {
			t.Child(i).TileSet(FoundTile, v, dt, colorTree, normTree)
		}
	}
}

// beginMorphDownToChildren starts the cross-fade from t's four children
// back to t, one of the two cases render.cxx's TileSet handles once a
// tile has been selected but still has children: every child not yet
// morphing is armed (acquired if needed) and marked MorphToFiner, and t
// is marked MorphToFiner and NotDrawn until DrawChunks promotes it. A
// child already MorphToFiner has its own children's morph aborted and
// its currentT reset.
func (t *Tile) beginMorphDownToChildren(v View, dt float32, colorTree, normTree rescache.TextureSource) {
	for i := 0; i < 4; i++ {
		c := t.Child(i)
		switch c.morphFrom {
		case MorphNone:
			if c.drawStatus != StatusDrawn {
				c.TileSet(MorphUp, v, dt, colorTree, normTree)
			}
			c.morphFrom = MorphToFiner
			t.morphFrom = MorphToFiner
			t.drawStatus = StatusNotDrawn
		case MorphToFiner:
			c.AbortMorphUp(v)
			c.currentT = 0
			c.drawStatus = StatusDrawn
		}
	}
}

func (t *Tile) tileSetHandleInsufficientDetail(mode ReleaseMode, v View, dt float32, colorTree, normTree rescache.TextureSource) {
	if t.NumChildren() == 0 {
		if t.drawStatus != StatusDrawn {
			if err := t.acquireResources(v, colorTree, normTree); err != nil {
				panic(err)
			}
		}
		return
	}

	if t.drawStatus == StatusDrawn {
		t.Release(v, StatusNotDrawn)
		for i := 0; i < 4; i++ {
			t.Child(i).TileSet(MorphDown, v, dt, colorTree, normTree)
		}
		return
	}

	if t.morphFrom == MorphToFiner {
		t.AbortMorphUp(v)
		t.Release(v, StatusNotDrawn)
		for i := 0; i < 4; i++ {
			t.Child(i).TileSet(MorphUp, v, dt, colorTree, normTree)
		}
		return
	}

	t.drawStatus = StatusNotDrawn
	for i := 0; i < 4; i++ {
		t.Child(i).TileSet(TileSearch, v, dt, colorTree, normTree)
	}
}

func (t *Tile) tileSetHandleOutsideFrustum(v View, dt float32, colorTree, normTree rescache.TextureSource) {
	if t.drawStatus == StatusDrawn && t.morphFrom != MorphToFiner {
		t.Release(v, StatusOutsideFrustum)
	}

	if t.drawStatus == StatusNotDrawn {
		if t.NumChildren() != 0 {
			for i := 0; i < 4; i++ {
				t.Child(i).TileSet(OutsideFrustum, v, dt, colorTree, normTree)
			}
		}
		if t.morphFrom != MorphToFiner {
			t.drawStatus = StatusOutsideFrustum
		}
	}
}

func (t *Tile) tileSetFoundTile(v View, dt float32, colorTree, normTree rescache.TextureSource) {
	if t.morphFrom == MorphToFiner {
		return
	}

	if t.drawStatus == StatusDrawn {
		t.Release(v, StatusNotDrawn)
	}
	t.drawStatus = StatusNotDrawn

	if t.NumChildren() != 0 {
		for i := 0; i < 4; i++ {
			t.Child(i).TileSet(FoundTile, v, dt, colorTree, normTree)
		}
	}
}

func (t *Tile) tileSetOutsideFrustum(v View, dt float32, colorTree, normTree rescache.TextureSource) {
	if t.morphFrom != MorphToFiner {
		if t.drawStatus == StatusDrawn {
			t.Release(v, StatusOutsideFrustum)
		}
		t.drawStatus = StatusOutsideFrustum
	}

	if t.NumChildren() != 0 {
		for i := 0; i < 4; i++ {
			t.Child(i).TileSet(OutsideFrustum, v, dt, colorTree, normTree)
		}
	}
}

func (t *Tile) tileSetMorphUp(v View, colorTree, normTree rescache.TextureSource) {
	if err := t.acquireResources(v, colorTree, normTree); err != nil {
		panic(err)
	}
}

// DrawChunks walks the tile's subtree issuing a Draw for every
// currently-selected (Drawn) tile, recursing into NotDrawn subtrees to
// find the selected descendants, and promoting a NotDrawn MorphToFiner
// parent back to Drawn once none of its four children is still morphing.
func (t *Tile) DrawChunks(v View, dt float32) {
	status := t.drawStatus

	if status == StatusDrawn {
		t.Draw(v, dt)
	} else if status == StatusNotDrawn {
		if t.NumChildren() == 0 {
			return
		}
		for i := 0; i < 4; i++ {
			t.Child(i).DrawChunks(v, dt)
		}
	}

	if status == StatusNotDrawn && t.morphFrom == MorphToFiner {
		settled := true
		for i := 0; i < 4; i++ {
			if t.Child(i).morphFrom != MorphNone {
				settled = false
			}
		}
		if settled {
			t.morphFrom = MorphNone
			t.drawStatus = StatusDrawn
			t.Draw(v, dt)
		}
	}
}

// Draw advances the tile's morph timer and issues its draw call.
func (t *Tile) Draw(v View, dt float32) {
	morphTime := v.MorphTime()
	if morphTime <= 0 {
		morphTime = DefaultMorphTime
	}

	if t.morphFrom == MorphToCoarser {
		t.currentT -= dt / morphTime
		if t.currentT <= 0 {
			t.morphFrom = MorphNone
			t.currentT = 0
		}
	}

	if t.morphFrom == MorphToFiner {
		t.currentT += dt / morphTime
		if t.currentT >= 1.0 {
			t.morphFrom = MorphNone
			t.currentT = 0
			t.Release(v, StatusNotDrawn)
			return
		}
	}

	if v.WireframeMode() {
		v.DrawWireframeChunk(t, t.currentT)
	} else {
		t.texture.Activate(0)
		t.normMap.Activate(1)
		v.DrawTexturedChunk(t, t.currentT)
	}

	t.vao.Render()
}
