// Package tqt reads texture quadtrees: per-cell directories of TGA
// tiles, one per (lod, row, col), used as the color and normal maps a
// terrain tile binds while drawing. It implements
// internal/engine/rescache.TextureSource.
package tqt

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"

	"github.com/Faultbox/terrain-lod/internal/engine/texture"
)

// Tree is a decoded texture quadtree rooted at a directory of TGA
// files named "<lod>-<row>-<col>.tga". Depth must match the owning
// cell's LOD count (Cell::InitTextures asserts this for the paired
// color/normal trees in the original renderer).
type Tree struct {
	dir   string
	depth int

	mu    sync.Mutex
	cache map[[3]int]image.Image // decoded-tile memo, keyed by (lod,row,col)
}

// Open checks that dir exists and is a directory and returns a Tree of
// the given depth ready to serve Tile lookups. It does not list or
// eagerly decode any tile;
// tiles are decoded (and memoized) on first use via Tile.
func Open(dir string, depth int) (*Tree, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("tqt: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tqt: %s is not a directory", dir)
	}
	return &Tree{dir: dir, depth: depth, cache: make(map[[3]int]image.Image)}, nil
}

// Depth is the number of LOD levels present in the tree.
func (t *Tree) Depth() int { return t.depth }

func (t *Tree) tilePath(lod, row, col int) string {
	return filepath.Join(t.dir, fmt.Sprintf("%d-%d-%d.tga", lod, row, col))
}

// Tile returns the decoded image for (lod, row, col), satisfying
// rescache.TextureSource. If the exact tile is missing from disk (a
// common case for highly detailed trees that omit blank tiles), it
// falls back to downsampling the nearest present ancestor tile.
func (t *Tree) Tile(lod, row, col int) (image.Image, error) {
	key := [3]int{lod, row, col}

	t.mu.Lock()
	if img, ok := t.cache[key]; ok {
		t.mu.Unlock()
		return img, nil
	}
	t.mu.Unlock()

	img, err := t.decode(lod, row, col)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.cache[key] = img
	t.mu.Unlock()
	return img, nil
}

func (t *Tree) decode(lod, row, col int) (image.Image, error) {
	data, err := os.ReadFile(t.tilePath(lod, row, col))
	if err == nil {
		return texture.DecodeTGA(data)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("tqt: read %s: %w", t.tilePath(lod, row, col), err)
	}
	if lod == 0 {
		return nil, fmt.Errorf("tqt: no tile at root LOD 0-0-0 in %s", t.dir)
	}

	parent, err := t.Tile(lod-1, row/2, col/2)
	if err != nil {
		return nil, err
	}
	return downsampleQuadrant(parent, row%2, col%2), nil
}

// downsampleQuadrant extracts the (qr,qc) quadrant of parent and scales
// it back up to parent's own size, approximating the missing finer
// tile with its ancestor's detail.
func downsampleQuadrant(parent image.Image, qr, qc int) image.Image {
	b := parent.Bounds()
	hw, hh := b.Dx()/2, b.Dy()/2
	sub := image.Rect(b.Min.X+qc*hw, b.Min.Y+qr*hh, b.Min.X+(qc+1)*hw, b.Min.Y+(qr+1)*hh)

	out := image.NewRGBA(b)
	draw.NearestNeighbor.Scale(out, b, parent, sub, draw.Over, nil)
	return out
}
