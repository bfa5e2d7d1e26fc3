// Package hfcell decodes a map cell's "hf.cell" file: the packed
// binary quadtree of mesh chunks described by map-cell.hxx's Vertex
// and Chunk structs, read back into an internal/engine/terrain.Cell.
package hfcell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/terrain-lod/internal/engine/terrain"
	"github.com/Faultbox/terrain-lod/internal/logger"
	"github.com/Faultbox/terrain-lod/pkg/vecmath"
)

// Magic is the 4-byte file signature ('cell' in ASCII), matching
// Cell::MAGIC in map-cell.hxx.
const Magic uint32 = 0x63656c6c

// ErrBadMagic is returned when a file's signature doesn't match Magic.
var ErrBadMagic = errors.New("hfcell: bad magic number")

// Load reads an hf.cell file at path and populates cell's quadtree.
// worldOrigin is the cell's NW corner in world space (see
// terrain.Map.NWCellCorner), used to compute each tile's bounding box.
func Load(path string, cell *terrain.Cell, worldOrigin vecmath.Vec3d, hScale, vScale float32) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Decode(f, cell, worldOrigin, hScale, vScale)
}

// Decode reads an hf.cell stream from r and populates cell's quadtree.
func Decode(r io.Reader, cell *terrain.Cell, worldOrigin vecmath.Vec3d, hScale, vScale float32) error {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("hfcell: read magic: %w", err)
	}
	if magic != Magic {
		return fmt.Errorf("%w: got %#x, want %#x", ErrBadMagic, magic, Magic)
	}

	var nLODs, tileWidth uint32
	if err := binary.Read(r, binary.LittleEndian, &nLODs); err != nil {
		return fmt.Errorf("hfcell: read nLODs: %w", err)
	}
	if nLODs < terrain.MinNumLODs || nLODs > terrain.MaxNumLODs {
		return fmt.Errorf("hfcell: nLODs %d out of range [%d,%d]", nLODs, terrain.MinNumLODs, terrain.MaxNumLODs)
	}
	if err := binary.Read(r, binary.LittleEndian, &tileWidth); err != nil {
		return fmt.Errorf("hfcell: read tile width: %w", err)
	}
	if tileWidth != cell.Width() {
		return fmt.Errorf("hfcell: tile width %d does not match cell width %d", tileWidth, cell.Width())
	}

	nTiles := numTiles(nLODs)
	tiles := make([]terrain.Tile, nTiles)
	lodOf := lodAssigner(nLODs)

	for id := uint32(0); id < nTiles; id++ {
		chunk, err := decodeChunk(r)
		if err != nil {
			return fmt.Errorf("hfcell: tile %d: %w", id, err)
		}

		lod := lodOf(id)
		row, col := tileCoords(cell.Width(), lod, id, nLODs)
		tileWidth := cell.Width() >> uint(lod)

		tile := terrain.NewTile(id, row, col, lod, chunk)
		tile.SetBBox(tileBBox(worldOrigin, row, col, tileWidth, chunk.MinY, chunk.MaxY, hScale, vScale))
		tiles[id] = *tile
	}

	if err := cell.SetTiles(int32(nLODs), tiles); err != nil {
		return err
	}

	logger.Debug("cell streamed",
		zap.Uint32("row", cell.Row()),
		zap.Uint32("col", cell.Col()),
		zap.Uint32("nlods", nLODs),
		zap.Uint32("ntiles", nTiles),
	)

	return nil
}

func decodeChunk(r io.Reader) (terrain.Chunk, error) {
	var c terrain.Chunk
	var maxError float32
	var minY, maxY int16
	var nVertices, nIndices uint32

	if err := binary.Read(r, binary.LittleEndian, &maxError); err != nil {
		return c, fmt.Errorf("maxError: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &minY); err != nil {
		return c, fmt.Errorf("minY: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &maxY); err != nil {
		return c, fmt.Errorf("maxY: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nVertices); err != nil {
		return c, fmt.Errorf("nVertices: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nIndices); err != nil {
		return c, fmt.Errorf("nIndices: %w", err)
	}

	vertices := make([]terrain.Vertex, nVertices)
	for i := range vertices {
		var packed [4]int16
		if err := binary.Read(r, binary.LittleEndian, &packed); err != nil {
			return c, fmt.Errorf("vertex %d: %w", i, err)
		}
		vertices[i] = terrain.Vertex{X: packed[0], Y: packed[1], Z: packed[2], MorphDelta: packed[3]}
	}

	indices := make([]uint16, nIndices)
	if err := binary.Read(r, binary.LittleEndian, &indices); err != nil {
		return c, fmt.Errorf("indices: %w", err)
	}

	c.MaxError = maxError
	c.MinY = minY
	c.MaxY = maxY
	c.Vertices = vertices
	c.Indices = indices
	return c, nil
}

// numTiles returns (4^nLODs - 1) / 3, the total node count of a complete
// quadtree nLODs levels deep (spec.md's nTiles formula), so the tile
// count never needs to travel over the wire alongside nLODs.
func numTiles(nLODs uint32) uint32 {
	n := uint32(0)
	count := uint32(1)
	for l := uint32(0); l < nLODs; l++ {
		n += count
		count *= 4
	}
	return n
}

// lodAssigner returns a function mapping a flat quadtree index to its
// LOD level: index 0 is LOD 0 (1 node), indices 1-4 are LOD 1 (4 nodes
// per parent), and so on, matching the 4^lod growth of a quadtree level.
func lodAssigner(nLODs uint32) func(id uint32) int32 {
	levelStart := make([]uint32, nLODs+1)
	count := uint32(1)
	for l := uint32(0); l < nLODs; l++ {
		levelStart[l+1] = levelStart[l] + count
		count *= 4
	}
	return func(id uint32) int32 {
		for l := int32(nLODs) - 1; l >= 0; l-- {
			if id >= levelStart[l] {
				return l
			}
		}
		return 0
	}
}

// tileCoords computes a tile's NW row/col within its cell from its
// position in the flat quadtree array, walking from id up to the root:
// node i's children sit at 4i+1..4i+4 in NW, NE, SW, SE order.
func tileCoords(cellWidth uint32, lod int32, id uint32, nLODs uint32) (uint32, uint32) {
	var r, c uint32
	w := cellWidth >> uint(lod)
	for ; id > 0; id = (id - 1) / 4 {
		q := (id - 1) % 4 // slot under the parent: 0 NW, 1 NE, 2 SW, 3 SE
		if q&1 != 0 {
			c += w
		}
		if q&2 != 0 {
			r += w
		}
		w <<= 1
	}
	return r, c
}

func tileBBox(origin vecmath.Vec3d, row, col, width uint32, minY, maxY int16, hScale, vScale float32) vecmath.AABBd {
	x0 := origin.X + float64(col)*float64(hScale)
	z0 := origin.Z + float64(row)*float64(hScale)
	x1 := x0 + float64(width)*float64(hScale)
	z1 := z0 + float64(width)*float64(hScale)
	y0 := origin.Y + float64(minY)*float64(vScale)
	y1 := origin.Y + float64(maxY)*float64(vScale)
	return vecmath.AABBd{
		Min: vecmath.Vec3d{X: x0, Y: y0, Z: z0},
		Max: vecmath.Vec3d{X: x1, Y: y1, Z: z1},
	}
}
