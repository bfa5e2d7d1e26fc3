package rescache

import (
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-lod/internal/engine/texture"
	"github.com/Faultbox/terrain-lod/internal/logger"
)

// TileKey addresses one tile of a texture quadtree: which tree (map
// cell) it belongs to, its LOD level, and its row/col within that
// level.
type TileKey struct {
	Tree     int
	Lod      int
	Row, Col int
}

// TextureSource decodes the image data backing one texture-quadtree
// tile. internal/formats/tqt.Tree implements this.
type TextureSource interface {
	Tile(lod, row, col int) (image.Image, error)
}

// TextureHandle is what a tile needs from an acquired texture: bind it
// to a texture unit for the next draw call. Declared so callers
// (internal/engine/terrain) can drive the acquire/release cycle against
// a fake in tests, without a live GL context; *Texture satisfies it for
// real rendering.
type TextureHandle interface {
	Activate(unit uint32)
}

// Texture is a GPU texture object bound to one TileKey, refcounted so
// multiple tiles referencing the same underlying image (e.g. during a
// morph transition) share one upload.
type Texture struct {
	id   uint32
	key  TileKey
	refs int
}

// Activate binds the texture to the given texture unit (0-based).
func (tex *Texture) Activate(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
}

// TextureCache is a bounded LRU cache of decoded GPU textures, keyed by
// TileKey. Entries are only evicted once their reference count drops
// to zero; golang-lru's plain Add-evicts-oldest policy does not know
// about refcounts, so eviction scans the key list for the oldest
// unreferenced entry rather than trusting whatever Add() would evict.
type TextureCache struct {
	mu       sync.Mutex
	cache    *lru.Cache
	capacity int
}

type textureEntry struct {
	tex *Texture
}

// NewTextureCache builds a cache holding up to capacity decoded
// textures at once.
func NewTextureCache(capacity int) *TextureCache {
	// golang-lru's own eviction is disabled in effect: since Add is only
	// ever called after a manual capacity check below, the cache never
	// grows past capacity via Add's automatic eviction path.
	c, err := lru.New(capacity)
	if err != nil {
		panic(fmt.Sprintf("rescache: invalid TextureCache capacity %d: %v", capacity, err))
	}
	return &TextureCache{cache: c, capacity: capacity}
}

// Make returns the texture for key, decoding and uploading it from src
// if not already cached, and incrementing its reference count. The
// caller must call Release when done with it.
func (c *TextureCache) Make(src TextureSource, key TileKey) (TextureHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache.Get(key); ok {
		e := v.(*textureEntry)
		e.tex.refs++
		return e.tex, nil
	}

	if c.cache.Len() >= c.capacity {
		if !c.evictOneLocked() {
			return nil, fmt.Errorf("rescache: TextureCache exhausted (capacity %d), all entries still referenced", c.capacity)
		}
	}

	img, err := src.Tile(key.Lod, key.Row, key.Col)
	if err != nil {
		return nil, fmt.Errorf("rescache: decode tile %+v: %w", key, err)
	}

	tex := &Texture{key: key, refs: 1}
	tex.id = texture.UploadGL(img)
	c.cache.Add(key, &textureEntry{tex: tex})
	return tex, nil
}

// Release drops a reference to the texture identified by key. The
// entry stays cached (for reuse) until evicted to make room for a new
// tile, at which point it must have refs == 0.
func (c *TextureCache) Release(key TileKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Peek(key)
	if !ok {
		return
	}
	e := v.(*textureEntry)
	if e.tex.refs > 0 {
		e.tex.refs--
	}
}

// evictOneLocked removes the least-recently-used unreferenced entry,
// returning false if every cached entry is still referenced.
func (c *TextureCache) evictOneLocked() bool {
	for _, k := range c.cache.Keys() {
		v, ok := c.cache.Peek(k)
		if !ok {
			continue
		}
		e := v.(*textureEntry)
		if e.tex.refs == 0 {
			gl.DeleteTextures(1, &e.tex.id)
			c.cache.Remove(k)
			logger.Debug("texture evicted", zap.Any("key", k))
			return true
		}
	}
	return false
}

