// Package rescache implements the two bounded GPU-resource caches the
// LOD selection algorithm draws from: a fixed-size pool of vertex array
// objects for mesh chunks, and an LRU cache of decoded textures.
package rescache

import (
	"container/list"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Vertex is the packed on-GPU vertex layout: position relative to the
// cell's NW corner (in hScale/vScale units) plus a morph-target Y delta.
type Vertex struct {
	X, Y, Z      int16
	MorphDelta   int16
}

// Chunk is the mesh data a tile's VAO is loaded from.
type Chunk struct {
	MaxError  float32
	MinY      int16
	MaxY      int16
	Vertices  []Vertex
	Indices   []uint16
}

// VAOHandle is what a tile needs from an acquired VAO slot: load a
// chunk's mesh data in, then issue its draw call. Declared so callers
// (internal/engine/terrain) can drive the acquire/release/draw cycle
// against a fake in tests, without a live GL context; *VAO satisfies it
// for real rendering.
type VAOHandle interface {
	Load(chunk Chunk)
	Render()
}

// VAO is a handle to one slot of the VAOCache's fixed-size GPU buffer
// pool, currently loaded with one chunk's vertex/index data.
type VAO struct {
	id        uint32 // GL vertex array object
	vbo, ebo  uint32
	nIndices  int32
	refs      int
	elem      *list.Element // this handle's position in the cache's LRU list
}

// Load uploads chunk's vertex/index data into this VAO's buffers,
// replacing whatever was there before.
func (v *VAO) Load(chunk Chunk) {
	gl.BindVertexArray(v.id)

	gl.BindBuffer(gl.ARRAY_BUFFER, v.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(chunk.Vertices)*8, gl.Ptr(chunk.Vertices), gl.DYNAMIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, v.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(chunk.Indices)*2, gl.Ptr(chunk.Indices), gl.DYNAMIC_DRAW)

	// position (int16 x3) + morph delta (int16), location 0
	gl.VertexAttribPointerWithOffset(0, 4, gl.SHORT, false, 8, 0)
	gl.EnableVertexAttribArray(0)

	v.nIndices = int32(len(chunk.Indices))

	gl.BindVertexArray(0)
}

// Render issues the indexed draw call for this VAO's currently loaded
// chunk.
func (v *VAO) Render() {
	gl.BindVertexArray(v.id)
	gl.DrawElements(gl.TRIANGLES, v.nIndices, gl.UNSIGNED_SHORT, unsafe.Pointer(nil))
	gl.BindVertexArray(0)
}

// VAOCache is a fixed-capacity pool of VAO handles. Tiles acquire a
// handle when they need to draw a chunk and release it when the tile
// stops being drawn; the pool itself never grows once built, matching
// the spec's bounded-working-set requirement.
type VAOCache struct {
	handles []*VAO
	free    *list.List // free-list of available (refs == 0) handles, LRU order
}

// NewVAOCache allocates capacity GPU buffer sets up front.
func NewVAOCache(capacity int) *VAOCache {
	return newVAOCache(capacity, true)
}

// NewVAOCacheForTest builds a pool of the same fixed-capacity shape as
// NewVAOCache without touching the GL context, so packages that consume
// a *VAOCache (such as terrain's tile selection logic) can be tested
// without a live window/GL driver.
func NewVAOCacheForTest(capacity int) *VAOCache {
	return newVAOCache(capacity, false)
}

func newVAOCache(capacity int, allocGL bool) *VAOCache {
	c := &VAOCache{
		handles: make([]*VAO, capacity),
		free:    list.New(),
	}
	for i := range c.handles {
		v := &VAO{}
		if allocGL {
			gl.GenVertexArrays(1, &v.id)
			gl.GenBuffers(1, &v.vbo)
			gl.GenBuffers(1, &v.ebo)
		}
		v.elem = c.free.PushBack(v)
		c.handles[i] = v
	}
	return c
}

// Acquire returns an unreferenced handle, preferring the least recently
// used one. It panics if every handle in the pool is still referenced
// by a drawn tile — per the spec this indicates the working set (the
// number of simultaneously visible chunks) exceeds the configured
// capacity, a fatal configuration error rather than a recoverable one.
func (c *VAOCache) Acquire() VAOHandle {
	front := c.free.Front()
	if front == nil {
		panic(fmt.Sprintf("rescache: VAOCache exhausted (capacity %d); increase Graphics.VAOCapacity", len(c.handles)))
	}
	v := front.Value.(*VAO)
	c.free.Remove(front)
	v.elem = nil
	v.refs = 1
	return v
}

// Release drops a tile's reference to h. Once unreferenced, the
// underlying handle goes back onto the tail of the free list
// (most-recently-used end), so the least-recently-released handle is
// reused first.
func (c *VAOCache) Release(h VAOHandle) {
	if h == nil {
		return
	}
	v := h.(*VAO)
	v.refs--
	if v.refs <= 0 {
		v.refs = 0
		v.elem = c.free.PushBack(v)
	}
}

// Close destroys all GPU buffers owned by the cache.
func (c *VAOCache) Close() {
	for _, v := range c.handles {
		gl.DeleteBuffers(1, &v.vbo)
		gl.DeleteBuffers(1, &v.ebo)
		gl.DeleteVertexArrays(1, &v.id)
	}
}
